// Package client talks to the presentation API with a bearer token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/petermazzocco/go-presenter/internal/upload"
	"github.com/petermazzocco/go-presenter/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body errorBody
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
			apiErr.Message = body.Message
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// Login exchanges credentials for a bearer token and keeps it on c.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/token", in, &resp); err != nil {
		return nil, err
	}
	c.Token = resp.Token
	return resp.User, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListPresentations(ctx context.Context) ([]models.Presentation, error) {
	var list []models.Presentation
	err := c.doJSON(ctx, http.MethodGet, "/api/presentations", nil, &list)
	return list, err
}

type NewPresentation struct {
	Title           string `json:"title"`
	RefreshInterval *int   `json:"refresh_interval,omitempty"`
	IsPublic        bool   `json:"is_public"`
}

// CreatePresentation checks the title locally before calling the server.
func (c *Client) CreatePresentation(ctx context.Context, in NewPresentation) (*models.Presentation, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, &models.ValidationError{Field: "title", Message: "is required"}
	}
	var p models.Presentation
	if err := c.doJSON(ctx, http.MethodPost, "/api/presentations", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePresentation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/presentations/"+url.PathEscape(id), nil, nil)
}

// PresentationUpdate carries the fields to change; nil fields are left alone.
type PresentationUpdate struct {
	Title           *string `json:"title,omitempty"`
	RefreshInterval *int    `json:"refresh_interval,omitempty"`
	IsPublic        *bool   `json:"is_public,omitempty"`
}

func (c *Client) UpdatePresentation(ctx context.Context, id string, in PresentationUpdate) (*models.Presentation, error) {
	var p models.Presentation
	if err := c.doJSON(ctx, http.MethodPatch, "/api/presentations/"+url.PathEscape(id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPresentation loads a presentation with the items visible to the caller.
// Without a token only public presentations resolve.
func (c *Client) GetPresentation(ctx context.Context, id string) (*models.Presentation, error) {
	var p models.Presentation
	if err := c.doJSON(ctx, http.MethodGet, "/public/presentations/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListItems(ctx context.Context, presentationID string) ([]models.PresentationItem, error) {
	var items []models.PresentationItem
	err := c.doJSON(ctx, http.MethodGet, "/public/presentations/"+url.PathEscape(presentationID)+"/items", nil, &items)
	return items, err
}

type NewItem struct {
	Type        models.ItemType `json:"type"`
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	DisplayTime *int            `json:"display_time,omitempty"`
	StorageKey  string          `json:"storage_key,omitempty"`
}

func (c *Client) CreateItem(ctx context.Context, presentationID string, in NewItem) (*models.PresentationItem, error) {
	check := models.PresentationItem{Type: in.Type, Title: in.Title, URL: in.URL}
	if err := check.Validate(); err != nil {
		return nil, err
	}
	var item models.PresentationItem
	path := "/api/presentations/" + url.PathEscape(presentationID) + "/items"
	if err := c.doJSON(ctx, http.MethodPost, path, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, presentationID, itemID string) error {
	path := "/api/presentations/" + url.PathEscape(presentationID) + "/items/" + url.PathEscape(itemID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ReorderItems stores a full ordering and returns the order the server
// persisted.
func (c *Client) ReorderItems(ctx context.Context, presentationID string, itemIDs []string) ([]models.PresentationItem, error) {
	var items []models.PresentationItem
	path := "/api/presentations/" + url.PathEscape(presentationID) + "/items/order"
	err := c.doJSON(ctx, http.MethodPut, path, map[string][]string{"item_ids": itemIDs}, &items)
	return items, err
}

// UploadFile validates and uploads a local image. Disallowed types and
// oversized files fail before any request is made.
func (c *Client) UploadFile(ctx context.Context, path string) (*upload.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > upload.MaxUploadBytes {
		return nil, upload.ErrTooLarge
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return c.UploadImage(ctx, filepath.Base(path), data)
}

func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (*upload.Result, error) {
	contentType := upload.DetectType(data)
	if err := upload.Validate(contentType, int64(len(data))); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/uploads", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var res upload.Result
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
