package enginehttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ClientOptions struct {
	// BaseURL is the engine REST root, e.g. http://localhost:8080/engine-rest.
	BaseURL  string
	User     string
	Password string
	// Verify toggles TLS certificate verification.
	Verify bool

	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// Client is bound to one engine. Requests are sent once; failed calls are
// not retried.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	opts    ClientOptions
	log     *zap.Logger
}

// Request is relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type Result struct {
	Method  string
	Path    string
	Status  int
	Headers http.Header
	Body    []byte
}

// HTTPStatusError is returned for non-2xx responses.
type HTTPStatusError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *HTTPStatusError) Error() string {
	if e.Status == http.StatusNotFound && e.Method == http.MethodGet {
		return fmt.Sprintf("the object %q you requested does not exist", e.Path)
	}
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	if text := http.StatusText(e.Status); text != "" {
		msg += " " + text
	}
	if detail := engineMessage(e.Body); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// engineMessage extracts the message of an engine ExceptionDto body.
func engineMessage(body []byte) string {
	var dto struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &dto); err != nil {
		return ""
	}
	return dto.Message
}

func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("empty engine url")
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid engine url %q: %w", opts.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid engine url %q: scheme must be http or https", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.Verify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		baseURL: u,
		opts:    opts,
		log:     log.Named("http"),
	}, nil
}

func (c *Client) Do(ctx context.Context, r Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	endpoint, err := c.endpoint(r.Path, r.Query)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	for k, vv := range r.Header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if c.opts.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if c.opts.User != "" {
		req.SetBasicAuth(c.opts.User, c.opts.Password)
	}

	c.logRequest(req, r.Body)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("url", endpoint), zap.Error(err))
		return nil, err
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	c.log.Debug("response",
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Int("bytes", len(respBody)),
		zap.Duration("took", time.Since(start)),
	)

	return &Result{
		Method:  method,
		Path:    r.Path,
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
		Body:    respBody,
	}, nil
}

// endpoint joins the base URL with an already escaped path.
func (c *Client) endpoint(path string, query url.Values) (string, error) {
	u := *c.baseURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	raw := strings.TrimRight(u.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	u.Path = unescaped
	u.RawPath = raw
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c *Client) logRequest(req *http.Request, body []byte) {
	if ce := c.log.Check(zap.DebugLevel, "request"); ce != nil {
		headers := make(map[string]string, len(req.Header))
		for k, vv := range req.Header {
			v := strings.Join(vv, ", ")
			if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Proxy-Authorization") {
				v = "<redacted>"
			}
			headers[k] = v
		}
		ce.Write(
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Any("headers", headers),
			zap.Int("bytes", len(body)),
		)
	}
}

// IsJSON reports whether the response declares a JSON content type.
func (r *Result) IsJSON() bool {
	ct := r.Headers.Get("Content-Type")
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(ct, "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// JSON decodes the body into generic values. Numbers are kept as json.Number
// so ids and large counters survive unchanged. An empty body decodes to nil.
func (r *Result) JSON() (any, error) {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return v, nil
}

// KeyOrder returns the keys of the top-level object in the order the server
// sent them. For a top-level array the first element is used. It returns nil
// when the body holds no object.
func (r *Result) KeyOrder() []string {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if tok == json.Delim('[') {
		if !dec.More() {
			return nil
		}
		if tok, err = dec.Token(); err != nil {
			return nil
		}
	}
	if tok != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
		keys = append(keys, key)
	}
	return keys
}

// Err returns an *HTTPStatusError for non-2xx responses.
func (r *Result) Err() error {
	if r.Status >= 200 && r.Status < 300 {
		return nil
	}
	return &HTTPStatusError{Method: r.Method, Path: r.Path, Status: r.Status, Body: r.Body}
}
