// Package api is the HTTP transport for the note server. It implements the
// wire contract the sync core depends on; all authenticated calls carry a
// bearer token, and its absence means the caller operates purely against
// the local buffer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"nota/internal/models"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "NOTA_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the note API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient creates a new API client. The token may be empty; calls that
// need one will come back unauthorized and surface as AuthExpired.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
		token:   strings.TrimSpace(token),
	}
}

// ListNotes fetches one page of notes starting at offset, newest first.
func (c *Client) ListNotes(ctx context.Context, offset int) ([]models.Note, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	var resp []models.Note
	err := c.do(ctx, http.MethodGet, "/items", query, nil, &resp)
	return resp, err
}

// CreateNote submits note text plus binary images as multipart form data.
// The returned note carries authoritative image records, positionally
// aligned with the submitted order.
func (c *Client) CreateNote(ctx context.Context, text string, images []Upload) (models.Note, error) {
	var resp models.Note
	err := c.postMultipart(ctx, "/new", func(w *multipart.Writer) error {
		if err := w.WriteField("text", text); err != nil {
			return err
		}
		return writeFileParts(w, "images", images)
	}, &resp)
	return resp, err
}

// EditNote replaces note text, deletes images by server id, and adds new
// binary images.
func (c *Client) EditNote(ctx context.Context, id int64, text string, deleteIDs []int64, add []Upload) (models.Note, error) {
	var resp models.Note
	err := c.postMultipart(ctx, "/edit/"+strconv.FormatInt(id, 10), func(w *multipart.Writer) error {
		if err := w.WriteField("text", text); err != nil {
			return err
		}
		for _, imageID := range deleteIDs {
			if err := w.WriteField("delete", strconv.FormatInt(imageID, 10)); err != nil {
				return err
			}
		}
		return writeFileParts(w, "add", add)
	}, &resp)
	return resp, err
}

// DeleteNote soft-deletes a note server-side and returns the removed id.
func (c *Client) DeleteNote(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := c.do(ctx, http.MethodPost, "/delete/"+strconv.FormatInt(id, 10), nil, nil, &removed)
	return removed, err
}

// GetProfile fetches the authenticated user profile.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var resp Profile
	err := c.do(ctx, http.MethodGet, "/me", nil, nil, &resp)
	return resp, err
}

// ListRecycled fetches soft-deleted notes.
func (c *Client) ListRecycled(ctx context.Context) ([]models.Note, error) {
	var resp []models.Note
	err := c.do(ctx, http.MethodGet, "/items/recycle", nil, nil, &resp)
	return resp, err
}

// RestoreNote moves a note out of the recycle collection.
func (c *Client) RestoreNote(ctx context.Context, id int64) (models.Note, error) {
	var resp models.Note
	err := c.do(ctx, http.MethodPost, "/items/restore/"+strconv.FormatInt(id, 10), nil, nil, &resp)
	return resp, err
}

// Login exchanges credentials for a bearer token. The endpoint expects a
// form-urlencoded body, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var resp LoginResponse

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode >= 400 {
		return resp, decodeError(httpResp)
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, password string) error {
	return c.do(ctx, http.MethodPost, "/register", nil, RegisterRequest{Name: name, Password: password}, nil)
}

// Export streams the server-side data archive to w.
func (c *Client) Export(ctx context.Context, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/export", nil)
	if err != nil {
		return err
	}
	c.setAuthHeader(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postMultipart(ctx context.Context, path string, fill func(*multipart.Writer) error, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func writeFileParts(w *multipart.Writer, field string, uploads []Upload) error {
	for _, upload := range uploads {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, upload.Filename))
		mediaType := upload.MediaType
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		header.Set("Content-Type", mediaType)
		part, err := w.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := part.Write(upload.Data); err != nil {
			return err
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil && detail.Detail != "" {
		apiErr.Message = detail.Detail
	}
	return apiErr
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
