package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/haryoiro/vidstream/internal/logger"
	"github.com/haryoiro/vidstream/internal/version"
	"golang.org/x/time/rate"
)

const (
	apiPrefix = "/api/v1"

	// maxErrorBody bounds how much of an error response is read for its message
	maxErrorBody = 64 * 1024
)

var userAgent = "vidstream/" + version.Version

// Options configures a Client
type Options struct {
	BaseURL    string
	AuthScheme string        // "Bearer" by default in config; empty sends the raw token
	Timeout    time.Duration // 0 disables the client timeout
	RateLimit  float64       // requests per second, 0 disables limiting
	RateBurst  int
	HTTPClient *http.Client
}

// Client talks to the video-sharing API
type Client struct {
	baseURL    string
	authScheme string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new API client
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		authScheme: opts.AuthScheme,
		httpClient: httpClient,
	}

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return c, nil
}

// BaseURL returns the API origin the client was configured with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SignIn authenticates with email and password
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signin", "", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignUp creates an account
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateUser renames the signed-in account
func (c *Client) UpdateUser(ctx context.Context, token string, req UpdateUserRequest) (*UserRef, error) {
	var resp UserResponse
	if err := c.doJSON(ctx, http.MethodPut, "/user", token, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ListVideos fetches the public feed
func (c *Client) ListVideos(ctx context.Context) ([]VideoRef, error) {
	var resp videoList
	if err := c.doJSON(ctx, http.MethodGet, "/video/", "", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListUserVideos fetches the videos owned by the token's account
func (c *Client) ListUserVideos(ctx context.Context, token string) ([]VideoRef, error) {
	var resp videoList
	if err := c.doJSON(ctx, http.MethodGet, "/user/video", token, nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return resp, nil
}

// UploadVideo sends metadata and media as a multipart form
func (c *Client) UploadVideo(ctx context.Context, token string, up Upload) (*VideoRef, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUpload(mw, up))
	}()

	var resp VideoResponse
	err := c.do(ctx, http.MethodPost, "/video/upload", token, pr, mw.FormDataContentType(), &resp)
	// Unblock the writer if the request ended before consuming the body
	pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return resp.Video, nil
}

func writeUpload(mw *multipart.Writer, up Upload) error {
	if err := mw.WriteField("title", up.Title); err != nil {
		return err
	}
	if err := mw.WriteField("description", up.Description); err != nil {
		return err
	}
	if up.Image != nil {
		if err := writeFilePart(mw, "image", up.ImageName, up.Image); err != nil {
			return err
		}
	}
	if up.Video != nil {
		if err := writeFilePart(mw, "video", up.VideoName, up.Video); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writeFilePart(mw *multipart.Writer, field, name string, r io.Reader) error {
	if name == "" {
		name = field
	}
	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("write %s: %w", field, err)
	}
	return nil
}

// UpdateVideo edits the metadata of a video
func (c *Client) UpdateVideo(ctx context.Context, token, id string, req UpdateVideoRequest) (*VideoRef, error) {
	var resp VideoResponse
	if err := c.doJSON(ctx, http.MethodPut, "/video/"+url.PathEscape(id), token, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return resp.Video, nil
}

// DeleteVideo removes a video
func (c *Client) DeleteVideo(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/video/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, token, body, contentType, out)
}

// do performs the request and decodes a 2xx body into out. A nil out
// discards the body.
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", c.authorization(token))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("%s %s failed after %s (request %s): %v", method, path, time.Since(start), requestID, err)
		return err
	}
	defer resp.Body.Close()

	logger.Debug("%s %s -> %d in %s (request %s)", method, path, resp.StatusCode, time.Since(start), requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrMalformedResponse)
		}
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) authorization(token string) string {
	if c.authScheme == "" {
		return token
	}
	return c.authScheme + " " + token
}

func newStatusError(method, path string, resp *http.Response) *StatusError {
	se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return se
	}

	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		if eb.Message != "" {
			se.Message = eb.Message
		} else {
			se.Message = eb.Error
		}
		return se
	}

	se.Message = strings.TrimSpace(string(data))
	return se
}
