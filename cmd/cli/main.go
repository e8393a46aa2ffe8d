package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"
)

// roomctl is a small operator CLI over the roomstay HTTP API.
//
//	roomctl -api http://localhost:8080 login -email you@x.com -password secret
//	roomctl room list
//	roomctl room get <id>
//	roomctl room delete <id>
//	roomctl category list
//	roomctl category add -name Deluxe -price-cents 18900

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func main() {
	apiFlag := flag.String("api", envOr("ROOMSTAY_API", "http://localhost:8080"), "API base URL")
	tokenFlag := flag.String("token", os.Getenv("ROOMSTAY_TOKEN"), "bearer token for mutations")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	c := &client{
		baseURL: *apiFlag,
		token:   *tokenFlag,
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	var err error
	switch flag.Arg(0) {
	case "login":
		err = c.login(flag.Args()[1:])
	case "register":
		err = c.register(flag.Args()[1:])
	case "room":
		err = c.room(flag.Args()[1:])
	case "category":
		err = c.category(flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: roomctl [-api URL] [-token TOKEN] <login|register|room|category> ...")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *client) login(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	var out struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"`
	}
	if err := c.call(http.MethodPost, "/api/auth/login", map[string]string{
		"email": *email, "password": *password,
	}, &out); err != nil {
		return err
	}
	fmt.Printf("export ROOMSTAY_TOKEN=%s # expires in %ds\n", out.Token, out.ExpiresIn)
	return nil
}

func (c *client) register(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	var out struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := c.call(http.MethodPost, "/api/auth/register", map[string]string{
		"email": *email, "username": *username, "password": *password,
	}, &out); err != nil {
		return err
	}
	fmt.Printf("registered user %s\nexport ROOMSTAY_TOKEN=%s\n", out.UserID, out.Token)
	return nil
}

type roomView struct {
	ID         string `json:"id"`
	RoomNumber string `json:"roomNumber"`
	Status     string `json:"status"`
	Version    int64  `json:"version"`
	Images     []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"images"`
	Category *struct {
		Name       string `json:"name"`
		PriceCents int64  `json:"priceCents"`
	} `json:"category"`
}

func (c *client) room(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: roomctl room <list|get|delete> [id]")
	}
	switch args[0] {
	case "list":
		var rooms []roomView
		if err := c.call(http.MethodGet, "/api/rooms", nil, &rooms); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNUMBER\tSTATUS\tCATEGORY\tPRICE\tIMAGES\tVERSION")
		for _, room := range rooms {
			name, price := "-", "-"
			if room.Category != nil {
				name = room.Category.Name
				price = fmt.Sprintf("%.2f", float64(room.Category.PriceCents)/100)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				room.ID, room.RoomNumber, room.Status, name, price, len(room.Images), room.Version)
		}
		return w.Flush()
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: roomctl room get <id>")
		}
		var room roomView
		if err := c.call(http.MethodGet, "/api/rooms/"+args[1], nil, &room); err != nil {
			return err
		}
		out, err := json.MarshalIndent(room, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: roomctl room delete <id>")
		}
		if err := c.call(http.MethodDelete, "/api/rooms/"+args[1], nil, nil); err != nil {
			return err
		}
		fmt.Println("deleted", args[1])
		return nil
	default:
		return fmt.Errorf("unknown room command %q", args[0])
	}
}

func (c *client) category(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: roomctl category <list|add>")
	}
	switch args[0] {
	case "list":
		var categories []struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			PriceCents int64  `json:"priceCents"`
		}
		if err := c.call(http.MethodGet, "/api/categories", nil, &categories); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRICE")
		for _, category := range categories {
			fmt.Fprintf(w, "%s\t%s\t%.2f\n", category.ID, category.Name, float64(category.PriceCents)/100)
		}
		return w.Flush()
	case "add":
		fs := flag.NewFlagSet("category add", flag.ExitOnError)
		name := fs.String("name", "", "category name")
		priceCents := fs.Int64("price-cents", 0, "nightly price in cents")
		fs.Parse(args[1:])

		var out struct {
			ID string `json:"id"`
		}
		if err := c.call(http.MethodPost, "/api/categories", map[string]any{
			"name": *name, "priceCents": *priceCents,
		}, &out); err != nil {
			return err
		}
		fmt.Println("created category", out.ID)
		return nil
	default:
		return fmt.Errorf("unknown category command %q", args[0])
	}
}

func (c *client) call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
