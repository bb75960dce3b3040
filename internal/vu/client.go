package vu

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	DefaultAddress = "http://localhost:5340"
	DefaultTimeout = 10 * time.Second

	apiPrefix     = "api/v0/dial"
	statusOK      = "ok"
	maxErrorBytes = 4096
)

// Config configures a Client.
type Config struct {
	Address string
	APIKey  string
	// RequestsPerSecond limits outgoing requests; zero or less disables the limit.
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client talks to a VU-Server instance over its REST API.
type Client struct {
	base    *url.URL
	key     string
	http    *http.Client
	limiter *rate.Limiter
}

var _ API = (*Client)(nil)

type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient validates cfg and returns a client for the server it names.
func NewClient(cfg Config) (*Client, error) {
	errFactory := errors.New()

	addr := cfg.Address
	if addr == "" {
		addr = DefaultAddress
	}

	base, err := url.Parse(addr)
	if err != nil {
		return nil, errFactory.Wrapf(ErrBuildRequest, err, "invalid server address %q", addr)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errFactory.WithMessage(ErrBuildRequest,
			fmt.Sprintf("invalid server address %q: scheme must be http or https", addr))
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		base:    base,
		key:     cfg.APIKey,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Dial returns a handle bound to one dial.
func (c *Client) Dial(id DeviceID) *Dial {
	return &Dial{id: id, api: c}
}

func (c *Client) ListDials(ctx context.Context) ([]DialInfo, error) {
	var dials []DialInfo
	if err := c.get(ctx, []string{"list"}, nil, &dials); err != nil {
		return nil, err
	}

	return dials, nil
}

func (c *Client) Status(ctx context.Context, id DeviceID) (Status, error) {
	var status Status
	if err := c.get(ctx, []string{string(id), "status"}, nil, &status); err != nil {
		return Status{}, err
	}

	return status, nil
}

func (c *Client) SetName(ctx context.Context, id DeviceID, name string) error {
	return c.get(ctx, []string{string(id), "name"}, url.Values{"name": {name}}, nil)
}

func (c *Client) SetValue(ctx context.Context, id DeviceID, value Percent) error {
	return c.get(ctx, []string{string(id), "set"}, url.Values{
		"value": {strconv.Itoa(value.Value())},
	}, nil)
}

func (c *Client) SetBacklight(ctx context.Context, id DeviceID, backlight Backlight) error {
	return c.get(ctx, []string{string(id), "backlight"}, url.Values{
		"red":   {strconv.Itoa(backlight.Red().Value())},
		"green": {strconv.Itoa(backlight.Green().Value())},
		"blue":  {strconv.Itoa(backlight.Blue().Value())},
	}, nil)
}

func (c *Client) SetDialEasing(ctx context.Context, id DeviceID, easing Easing) error {
	return c.get(ctx, []string{string(id), "easing", "dial"}, easingQuery(easing), nil)
}

func (c *Client) SetBacklightEasing(ctx context.Context, id DeviceID, easing Easing) error {
	return c.get(ctx, []string{string(id), "easing", "backlight"}, easingQuery(easing), nil)
}

// SetImage uploads image as the dial's background. Unless force is set, the
// server skips the upload when the dial already shows a file of that name.
func (c *Client) SetImage(ctx context.Context, id DeviceID, filename string, image []byte, force bool) error {
	errFactory := errors.New()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("imgfile", filename)
	if err != nil {
		return errFactory.Wrap(ErrBuildRequest, err)
	}
	if _, err := part.Write(image); err != nil {
		return errFactory.Wrap(ErrBuildRequest, err)
	}
	if err := mw.Close(); err != nil {
		return errFactory.Wrap(ErrBuildRequest, err)
	}

	query := url.Values{"imgfile": {filename}}
	if force {
		query.Set("force", "true")
	}

	return c.do(ctx, http.MethodPost, []string{string(id), "image", "set"}, query,
		&body, mw.FormDataContentType(), nil)
}

func easingQuery(e Easing) url.Values {
	return url.Values{
		"period": {strconv.FormatInt(e.Period.Milliseconds(), 10)},
		"step":   {strconv.Itoa(e.Step.Value())},
	}
}

func (c *Client) get(ctx context.Context, path []string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path []string,
	query url.Values,
	body io.Reader,
	contentType string,
	out any,
) error {
	errFactory := errors.New()
	op := strings.Join(path, "/")

	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.key)

	u := c.base.JoinPath(append([]string{apiPrefix}, path...)...)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errFactory.Wrapf(ErrBuildRequest, err, "failed to build %s request", op)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errFactory.Wrapf(ErrTransport, err, "%s request", op)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errFactory.Wrapf(ErrTransport, err, "%s request", op)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "<no message>"
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		var r response
		if json.Unmarshal(raw, &r) == nil && r.Message != "" {
			msg = r.Message
		}
		return errFactory.WithMessage(ErrHTTPStatus,
			fmt.Sprintf("%s request: server returned %s: %s", op, resp.Status, msg))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return errFactory.Wrapf(ErrDecodeResponse, err, "%s response", op)
	}

	if !strings.EqualFold(strings.TrimSpace(r.Status), statusOK) {
		return errFactory.WithMessage(ErrServerFailure,
			fmt.Sprintf("%s request: server reported failure: %s", op, r.Message))
	}

	if out == nil || len(r.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(r.Data, out); err != nil {
		return errFactory.Wrapf(ErrDecodeResponse, err, "%s response data", op)
	}

	return nil
}
