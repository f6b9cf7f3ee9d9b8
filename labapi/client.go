// Package labapi talks to the laboratory API. Every state-changing call goes through Mutate, which
// refreshes the anti-forgery cookie and echoes it back in the X-CSRFToken header.
package labapi

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"environovalab/log"
	"environovalab/oops"

	"github.com/goccy/go-json"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
	csrfPath       = "/api/csrf/"
)

const maxBodySize = 32 * 1024 * 1024

type Client struct {
	baseUrl *url.URL
	http    *http.Client
	logger  log.Logger
}

// Jar holds both the session cookie and the anti-forgery cookie, so it has to be the same jar for
// every call made on behalf of one user.
func New(baseUrl string, jar http.CookieJar, timeout time.Duration, logger log.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseUrl, "/"))
	if err != nil {
		return nil, oops.Wrapf(err, "parse api base url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, oops.Newf("api base url must be http or https: %q", baseUrl)
	}
	if jar == nil {
		return nil, oops.New("api client needs a cookie jar")
	}

	return &Client{
		baseUrl: parsed,
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

func (c *Client) BaseUrl() string {
	return c.baseUrl.String()
}

type Response struct {
	Status int
	Ok     bool
	Body   json.RawMessage
}

func (r *Response) decode(method, path string, out any) error {
	if len(r.Body) == 0 {
		return &DecodeError{Method: method, Path: path, Inner: io.ErrUnexpectedEOF}
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return &DecodeError{Method: method, Path: path, Inner: err}
	}
	return nil
}

// Prime asks the server to set or refresh the anti-forgery cookie. Failures are only logged: the
// call that follows will fail on its own and report why.
func (c *Client) Prime(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(csrfPath), nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Couldn't build CSRF priming request")
		return
	}
	req.Header.Set("Accept", "application/json")

	t1 := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		recordCall(ctx, t1, true)
		c.logger.Warn().Err(err).Msg("CSRF priming failed")
		return
	}
	defer resp.Body.Close()
	recordCall(ctx, t1, resp.StatusCode/100 != 2)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode/100 != 2 {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("CSRF priming rejected")
	}
}

// CSRFToken returns the current anti-forgery token, or "" if the jar doesn't have one
func (c *Client) CSRFToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.baseUrl) {
		if cookie.Name == CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

// Send issues one request carrying the anti-forgery token. On a non-2xx status both the response
// and a *RejectedError are returned.
func (c *Client) Send(ctx context.Context, method, path string, body any) (*Response, error) {
	token := c.CSRFToken()
	if token == "" {
		return nil, ErrMissingToken
	}
	return c.do(ctx, method, path, body, token)
}

// Mutate is the only way pages change server state: prime, send, decode into out if it's non-nil.
// A 2xx without a body is a success that leaves out untouched.
func (c *Client) Mutate(ctx context.Context, method, path string, body any, out any) error {
	c.Prime(ctx)
	resp, err := c.Send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.decode(method, path, out)
}

// Fetch is a plain read. It neither primes nor sends the token.
func (c *Client) Fetch(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return resp.decode(http.MethodGet, path, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, oops.Wrapf(err, "encode %s %s body", method, path)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), bodyReader)
	if err != nil {
		return nil, oops.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(CSRFHeaderName, token)
		req.Header.Set("Referer", c.origin()+"/")
	}

	t1 := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		recordCall(ctx, t1, true)
		c.logger.Info().Err(err).Str("method", method).Str("path", path).Msg("API request failed")
		return nil, &NetworkError{Method: method, Path: path, Inner: err}
	}
	defer resp.Body.Close()
	recordCall(ctx, t1, resp.StatusCode/100 != 2)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Inner: err}
	}
	c.logger.Info().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		TimeDiff("duration", time.Now(), t1).
		Msg("API request")

	result := &Response{
		Status: resp.StatusCode,
		Ok:     resp.StatusCode/100 == 2,
		Body:   nil,
	}
	trimmed := bytes.TrimSpace(raw)
	if !result.Ok {
		if json.Valid(trimmed) {
			result.Body = json.RawMessage(trimmed)
		}
		return result, &RejectedError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: rejectionMessage(trimmed),
		}
	}
	if len(trimmed) > 0 {
		if !json.Valid(trimmed) {
			return result, &DecodeError{Method: method, Path: path, Inner: oops.New("body is not valid JSON")}
		}
		result.Body = json.RawMessage(trimmed)
	}
	return result, nil
}

type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Download fetches a binary document such as a generated PDF
func (c *Client) Download(ctx context.Context, path string) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, oops.Wrap(err)
	}

	t1 := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		recordCall(ctx, t1, true)
		return nil, &NetworkError{Method: http.MethodGet, Path: path, Inner: err}
	}
	defer resp.Body.Close()
	recordCall(ctx, t1, resp.StatusCode/100 != 2)

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Method: http.MethodGet, Path: path, Inner: err}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &RejectedError{
			Method:  http.MethodGet,
			Path:    path,
			Status:  resp.StatusCode,
			Message: rejectionMessage(bytes.TrimSpace(content)),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := ""
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			filename = params["filename"]
		}
	}
	return &File{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	}, nil
}

// Paths are absolute API paths; a path prefix on the base url is kept in front of them
func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseUrl.String() + path
	}
	resolved := *c.baseUrl
	resolved.Path = strings.TrimRight(c.baseUrl.Path, "/") + ref.Path
	resolved.RawPath = ""
	resolved.RawQuery = ref.RawQuery
	return resolved.String()
}

func (c *Client) origin() string {
	return c.baseUrl.Scheme + "://" + c.baseUrl.Host
}
