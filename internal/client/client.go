// Package client talks to the outbound-mode control API of a locally
// running proxy daemon.
//
// The API has a single resource:
//
//	GET  /v1/outbound            -> {"mode":"rule"}
//	POST /v1/outbound {"mode":…} -> 2xx acknowledgement
//
// Every request carries the caller's key in the X-Key header.  Each
// call is a single attempt; nothing is retried or cached.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	omerr "outmode/internal/errors"
	"outmode/internal/metrics"
	"outmode/internal/mode"
	"outmode/internal/transport"
	"outmode/util"
)

// OutboundPath is the control resource for the outbound mode.
const OutboundPath = "/v1/outbound"

// maxBody caps how much of a response we read.
const maxBody = 64 << 10

// ConnectionConfig addresses and authenticates the control endpoint.
// Key and Port are passed through unmodified.
type ConnectionConfig struct {
	Key     string
	Port    string
	Host    string        // defaults to 127.0.0.1
	Timeout time.Duration // per call; defaults to 5s
}

// Client issues control calls.  It is safe for concurrent use, though
// outmode never has more than one call in flight.
type Client struct {
	cfg     ConnectionConfig
	dialer  transport.Dialer
	http    *http.Client
	logger  *util.Logger
	metrics *metrics.Collector
	newID   func() string
}

// Option customises a Client.
type Option func(*Client)

// WithDialer routes connections through d (e.g. an SSH gateway).
func WithDialer(d transport.Dialer) Option { return func(c *Client) { c.dialer = d } }

// WithLogger sets the logger.
func WithLogger(l *util.Logger) Option { return func(c *Client) { c.logger = l } }

// WithMetrics records call counts into m.
func WithMetrics(m *metrics.Collector) Option { return func(c *Client) { c.metrics = m } }

// New validates cfg and returns a ready Client.  Only the presence of
// the key and port is checked.
func New(cfg ConnectionConfig, opts ...Option) (*Client, error) {
	if cfg.Key == "" {
		return nil, &omerr.ConfigError{Field: "x-key", Message: "required",
			Hint: "pass --x-key, set OUTMODE_X_KEY, or add x-key to the config file"}
	}
	if cfg.Port == "" {
		return nil, &omerr.ConfigError{Field: "port", Message: "required",
			Hint: "the daemon's control API port, e.g. 6171"}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	c := &Client{cfg: cfg, newID: uuid.NewString}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = util.Discard()
	}
	if c.dialer == nil {
		c.dialer = &transport.TCPDialer{Timeout: cfg.Timeout}
	}
	c.logger.Mask(cfg.Key)
	c.http = transport.HTTPClient(c.dialer, cfg.Timeout)
	return c, nil
}

// Config returns the connection settings in use.
func (c *Client) Config() ConnectionConfig { return c.cfg }

// Close releases the underlying dialer (an SSH session, if any).
func (c *Client) Close() error { return c.dialer.Close() }

// GetOutboundMode reads the mode the daemon currently enforces.
func (c *Client) GetOutboundMode(ctx context.Context) (mode.OutboundMode, error) {
	var out struct {
		Mode string `json:"mode"`
	}
	op := http.MethodGet + " " + OutboundPath
	if err := c.do(ctx, http.MethodGet, nil, &out); err != nil {
		return mode.Unknown, err
	}
	m := mode.OutboundMode(out.Mode)
	if !m.Valid() {
		err := omerr.Malformed(op, fmt.Sprintf("unknown mode %q", out.Mode))
		c.metrics.RecordFailure(omerr.Class(err), err.Error())
		return mode.Unknown, err
	}
	return m, nil
}

// ChangeOutboundMode asks the daemon to enforce target.  It succeeds
// only when the daemon acknowledges with a 2xx status.
func (c *Client) ChangeOutboundMode(ctx context.Context, target mode.OutboundMode) error {
	if !target.Valid() {
		return fmt.Errorf("%w %q", omerr.ErrUnknownMode, string(target))
	}
	if err := c.do(ctx, http.MethodPost, map[string]string{"mode": string(target)}, nil); err != nil {
		return err
	}
	c.metrics.SwitchApplied()
	return nil
}

// do performs one request and decodes a JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, method string, in, out interface{}) (err error) {
	op := method + " " + OutboundPath
	defer func() {
		if err != nil {
			c.metrics.RecordFailure(omerr.Class(err), err.Error())
		}
	}()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	url := util.ControlURL(c.cfg.Host, c.cfg.Port, OutboundPath)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id := c.newID()
	req.Header.Set("X-Key", c.cfg.Key)
	req.Header.Set("X-Request-Id", id)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("→ %s %s id=%s", method, url, id)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return omerr.Wrap(op, util.FormatAddr(c.cfg.Host, c.cfg.Port), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	latency := time.Since(start)
	c.metrics.RequestDone(latency)
	c.logger.Verbose("← %s %d in %s id=%s", op, resp.StatusCode, latency.Truncate(time.Millisecond), id)
	if err != nil {
		return omerr.Wrap(op, util.FormatAddr(c.cfg.Host, c.cfg.Port), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return omerr.FromStatus(op, resp.StatusCode, excerpt(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return omerr.Malformed(op, err.Error())
	}
	return nil
}

// excerpt pulls a short diagnostic out of an error body: the "error"
// or "message" field of a JSON object, else the trimmed text.
func excerpt(body []byte) string {
	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &obj) == nil {
		if obj.Error != "" {
			return obj.Error
		}
		if obj.Message != "" {
			return obj.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 80 {
		s = s[:80] + "…"
	}
	return s
}
