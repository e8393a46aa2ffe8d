package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/imaging"
	"github.com/yourorg/roomstay/internal/service"
)

// Room write endpoints accept either multipart/form-data (fields plus image
// files under the "images" key) or plain JSON (fields only). For updates the
// presence of a form key or JSON field decides whether it is applied, so an
// omitted field never clears anything.

type createRequest struct {
	CategoryID string `json:"category"`
	RoomNumber string `json:"roomNumber"`
	Status     string `json:"status"`
}

type updateRequest struct {
	CategoryID     *string  `json:"category"`
	RoomNumber     *string  `json:"roomNumber"`
	Status         *string  `json:"status"`
	Version        *int64   `json:"version"`
	ImagesToDelete []string `json:"imagesToDelete"`
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func parseCreateInput(r *http.Request, maxUploadBytes int64) (service.CreateRoomInput, error) {
	var in service.CreateRoomInput

	if !isMultipart(r) {
		var req createRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
			return in, domain.Validationf("body", "malformed json: %v", err)
		}
		in.CategoryID = req.CategoryID
		in.RoomNumber = req.RoomNumber
		in.Status = req.Status
		return in, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return in, domain.Validationf("body", "malformed multipart form: %v", err)
	}
	in.CategoryID = r.FormValue("category")
	in.RoomNumber = r.FormValue("roomNumber")
	in.Status = r.FormValue("status")

	files, err := collectUploads(r.MultipartForm)
	if err != nil {
		return in, err
	}
	in.Files = files
	return in, nil
}

func parseUpdateInput(r *http.Request, maxUploadBytes int64) (service.UpdateRoomInput, error) {
	var in service.UpdateRoomInput

	if !isMultipart(r) {
		var req updateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
			return in, domain.Validationf("body", "malformed json: %v", err)
		}
		in.CategoryID = req.CategoryID
		in.RoomNumber = req.RoomNumber
		in.Status = req.Status
		in.ExpectedVersion = req.Version
		in.ImagesToDelete = req.ImagesToDelete
		return in, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return in, domain.Validationf("body", "malformed multipart form: %v", err)
	}

	form := r.MultipartForm
	if values, ok := form.Value["category"]; ok {
		in.CategoryID = &values[0]
	}
	if values, ok := form.Value["roomNumber"]; ok {
		in.RoomNumber = &values[0]
	}
	if values, ok := form.Value["status"]; ok {
		in.Status = &values[0]
	}
	if values, ok := form.Value["version"]; ok {
		version, err := strconv.ParseInt(values[0], 10, 64)
		if err != nil {
			return in, domain.Validationf("version", "not a number")
		}
		in.ExpectedVersion = &version
	}
	in.ImagesToDelete = form.Value["imagesToDelete"]

	files, err := collectUploads(form)
	if err != nil {
		return in, err
	}
	in.Files = files
	return in, nil
}

// collectUploads reads and normalizes every attached image. A file the
// imaging pipeline rejects fails the whole request before anything is
// uploaded or written.
func collectUploads(form *multipart.Form) ([]service.Upload, error) {
	headers := form.File["images"]
	if len(headers) == 0 {
		return nil, nil
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, header := range headers {
		data, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		normalized, err := imaging.Normalize(data)
		if err != nil {
			return nil, domain.Validationf("images", "%s: %v", header.Filename, err)
		}
		uploads = append(uploads, service.Upload{Name: header.Filename, Data: normalized})
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", header.Filename, err)
	}
	return data, nil
}
