package bundlegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service is the subset of the server API the console drives.
// It is implemented by *Client and can be faked in tests.
type Service interface {
	ListBundles(ctx context.Context) ([]Bundle, error)
	Generate(ctx context.Context, req GenerateRequest) error
	DeleteBundle(ctx context.Context, name string) error
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Client talks to the BundleGen HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	timeout   time.Duration
	newID     func() string
}

const (
	defaultServer    = "127.0.0.1:5000"
	defaultUserAgent = "bundlectl/0.1"
	errorBodyExcerpt = 256
)

// Option tweaks a Client.
type Option func(*Client)

// WithTimeout bounds list, delete, form and download requests. Generation is
// never bounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient builds a Client for the server at host:port or a full URL.
func NewClient(server string, opts ...Option) (*Client, error) {
	base, err := ParseBaseURL(server)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Jar: jar},
		userAgent: defaultUserAgent,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// UserAgent returns the User-Agent the client sends.
func (c *Client) UserAgent() string { return c.userAgent }

// ListBundles retrieves every bundle the server knows about.
func (c *Client) ListBundles(ctx context.Context) ([]Bundle, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	var payload BundleListResponse
	if err := c.do(ctx, "list bundles", http.MethodGet, &url.URL{Path: "/bundles"}, nil, "", &payload); err != nil {
		return nil, err
	}
	return payload.Bundles, nil
}

// DeleteBundle removes the named bundle from the server's store.
func (c *Client) DeleteBundle(ctx context.Context, name string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("bundle name required")
	}
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	return c.do(ctx, "delete bundle", http.MethodDelete, bundlePath(name), nil, "", nil)
}

// Generate submits one generation request and blocks until the server
// settles it. The CSRF token is fetched from the form page first so the
// session cookie and token match.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if req.Image.FilePath != "" && req.Image.URL != "" {
		return fmt.Errorf("image source must be a file or a url, not both")
	}
	form, err := c.FetchForm(ctx)
	if err != nil {
		return err
	}

	body, contentType, err := encodeGenerateBody(req, form.CSRFToken)
	if err != nil {
		return err
	}
	defer body.Close()

	var payload GenerateResponse
	return c.do(ctx, "generate bundle", http.MethodPost, &url.URL{Path: "/"}, body, contentType, &payload)
}

// Download streams the named bundle into dir and returns the written path.
func (c *Client) Download(ctx context.Context, name, dir string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("bundle name required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	resp, err := c.send(ctx, "download bundle", http.MethodGet, bundlePath(name), nil, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return "", decodeError("download bundle", resp)
	}

	tmp, err := os.CreateTemp(dir, ".bundlectl-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", &TransportError{Op: "download bundle", RequestID: resp.Request.Header.Get("X-Request-ID"), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close download: %w", err)
	}
	dest := filepath.Join(dir, filepath.Base(name))
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move download: %w", err)
	}
	return dest, nil
}

func (c *Client) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) send(ctx context.Context, op, method string, rel *url.URL, body io.Reader, contentType string) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, RequestID: requestID, Err: err}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, op, method string, rel *url.URL, body io.Reader, contentType string, dest any) error {
	resp, err := c.send(ctx, op, method, rel, body, contentType)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(op, resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, RequestID: resp.Request.Header.Get("X-Request-ID"), Err: err}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &MalformedResponseError{Op: op, StatusCode: resp.StatusCode, Body: excerpt(raw), Err: err}
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var payload ErrorResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return &MalformedResponseError{Op: op, StatusCode: resp.StatusCode, Body: excerpt(raw), Err: err}
	}
	if payload.Message == nil {
		return &MalformedResponseError{Op: op, StatusCode: resp.StatusCode, Body: excerpt(raw), Err: fmt.Errorf("missing message field")}
	}
	return &ServerError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    *payload.Message,
		RequestID:  resp.Request.Header.Get("X-Request-ID"),
	}
}

// encodeGenerateBody builds the multipart body. An uploaded file is streamed
// through a pipe rather than buffered.
func encodeGenerateBody(req GenerateRequest, csrfToken string) (io.ReadCloser, string, error) {
	fields := [][2]string{
		{"csrf_token", csrfToken},
		{"image_url", strings.TrimSpace(req.Image.URL)},
		{"registry_uname", req.RegistryUsername},
		{"registry_password", req.RegistryPassword},
		{"platform", req.Platform},
		{"app_metadata", req.AppMetadata},
		{"lib_match", req.LibMatch},
	}

	path := strings.TrimSpace(req.Image.FilePath)
	if req.Image.Kind() != "file" {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for _, f := range fields {
			if err := mw.WriteField(f[0], f[1]); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
			}
		}
		if err := mw.Close(); err != nil {
			return nil, "", fmt.Errorf("close multipart: %w", err)
		}
		return io.NopCloser(&buf), mw.FormDataContentType(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image file: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer file.Close()
		for _, f := range fields {
			if err := mw.WriteField(f[0], f[1]); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		part, err := mw.CreateFormFile("uploaded_img", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()
	return pr, mw.FormDataContentType(), nil
}

func bundlePath(name string) *url.URL {
	return &url.URL{Path: "/bundle/" + name, RawPath: "/bundle/" + url.PathEscape(name)}
}

func excerpt(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > errorBodyExcerpt {
		return s[:errorBodyExcerpt]
	}
	return s
}

// ParseBaseURL normalizes a host:port or URL into a base URL without path,
// query or fragment.
func ParseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server %q: missing host", server)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
