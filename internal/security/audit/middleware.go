package audit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/roomstay/internal/security/middleware"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records every API mutation with its caller and outcome status
func Middleware(al *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodOptions ||
				!strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			userID := ""
			if id := middleware.GetIdentityFromContext(r.Context()); id != nil {
				userID = id.ID
			}
			status := strconv.Itoa(rec.status)

			if roomID, ok := strings.CutPrefix(r.URL.Path, "/api/rooms/"); ok {
				al.LogRoomMutation(r.Context(), userID, r.Method, roomID, status)
				return
			}
			al.LogAction(r.Context(), userID, r.Method, r.URL.Path, "", status)
		})
	}
}
