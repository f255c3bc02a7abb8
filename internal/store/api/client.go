// Package api is the Remote Bill Store backed by the Billed REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"billed/internal/core"
	"billed/internal/middleware/trace"
	"billed/internal/store"
)

// TokenSource supplies the bearer token sent with each request.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

var (
	_ store.Bills         = (*Client)(nil)
	_ store.Authenticator = (*Client)(nil)
)

// NewClient returns a client for the API rooted at baseURL. tokens may be nil.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Transport: trace.NewTransport(nil, logger)},
		tokens:     tokens,
		logger:     logger,
	}
}

// Login posts the credentials and returns the issued token.
func (c *Client) Login(ctx context.Context, creds store.Credentials) (string, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}
	var out struct {
		JWT string `json:"jwt"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", "application/json", bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	return out.JWT, nil
}

func (c *Client) List(ctx context.Context) ([]core.Bill, error) {
	var bills []core.Bill
	if err := c.do(ctx, "list", http.MethodGet, "/bills", "", nil, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// Create uploads the receipt as multipart form data with fields "file" and "email".
func (c *Client) Create(ctx context.Context, u store.Upload) (store.Receipt, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, u.FileName))
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return store.Receipt{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(u.Content); err != nil {
		return store.Receipt{}, fmt.Errorf("write file part: %w", err)
	}
	if err := w.WriteField("email", u.Email); err != nil {
		return store.Receipt{}, fmt.Errorf("write email field: %w", err)
	}
	if err := w.Close(); err != nil {
		return store.Receipt{}, fmt.Errorf("close multipart body: %w", err)
	}

	var rec store.Receipt
	if err := c.do(ctx, "create", http.MethodPost, "/bills", w.FormDataContentType(), &buf, &rec); err != nil {
		return store.Receipt{}, err
	}
	if rec.FileName == "" {
		rec.FileName = u.FileName
	}
	return rec, nil
}

func (c *Client) Update(ctx context.Context, id string, b core.Bill) (core.Bill, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return core.Bill{}, fmt.Errorf("marshal bill: %w", err)
	}
	var out core.Bill
	path := "/bills/" + url.PathEscape(id)
	if err := c.do(ctx, "update", http.MethodPatch, path, "application/json", bytes.NewReader(body), &out); err != nil {
		return core.Bill{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Remote unreachable", "op", op, "method", method, "path", path, "error", err)
		return &store.Error{Kind: store.KindNetworkError, Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &store.Error{Kind: store.KindUnknown, Op: op, Message: "invalid response body", Err: err}
	}
	return nil
}

func responseError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := fmt.Sprintf("Erreur %d", resp.StatusCode)
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	return &store.Error{Kind: kindForStatus(resp.StatusCode), Op: op, Message: msg}
}

func kindForStatus(code int) store.Kind {
	switch {
	case code == http.StatusNotFound:
		return store.KindNotFound
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return store.KindUnauthorized
	case code >= 500:
		return store.KindServerError
	default:
		return store.KindUnknown
	}
}
