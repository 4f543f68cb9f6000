// Package fakedaemon serves an in-process copy of a proxy daemon's
// outbound-mode control API.  Tests point the real client at it.
package fakedaemon

import (
	"net"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
)

// Request is one control call as the daemon saw it.
type Request struct {
	Method    string
	Path      string
	Key       string
	RequestID string
	Body      string // requested mode for POST
}

// Daemon holds the fake's mutable state.  The zero value is not
// usable; call New.
type Daemon struct {
	key string

	mu          sync.Mutex
	mode        string
	unsupported map[string]bool
	failStatus  int
	malformed   bool
	requests    []Request

	engine *gin.Engine
}

// New returns a daemon that accepts key and reports initial as its
// current mode.
func New(key, initial string) *Daemon {
	gin.SetMode(gin.TestMode)
	d := &Daemon{
		key:         key,
		mode:        initial,
		unsupported: make(map[string]bool),
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), d.record, d.authorize)

	v1 := engine.Group("/v1")
	{
		v1.GET("/outbound", d.getOutbound)
		v1.POST("/outbound", d.setOutbound)
	}
	d.engine = engine
	return d
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (d *Daemon) Handler() http.Handler { return d.engine }

// Start serves the daemon on a loopback port.  The caller closes it.
func (d *Daemon) Start() *httptest.Server { return httptest.NewServer(d.engine) }

// HostPort splits a started server's address for ConnectionConfig.
func HostPort(srv *httptest.Server) (host, port string) {
	host, port, _ = net.SplitHostPort(srv.Listener.Addr().String())
	return host, port
}

// ── knobs ────────────────────────────────────────────────────────────

// Mode returns the mode the daemon currently enforces.
func (d *Daemon) Mode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// SetMode replaces the current mode.  Any string is accepted so tests
// can make the daemon report garbage.
func (d *Daemon) SetMode(m string) {
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
}

// Unsupport makes POSTs naming m fail with 400.
func (d *Daemon) Unsupport(m string) {
	d.mu.Lock()
	d.unsupported[m] = true
	d.mu.Unlock()
}

// FailNext makes the next authorized request answer status.
func (d *Daemon) FailNext(status int) {
	d.mu.Lock()
	d.failStatus = status
	d.mu.Unlock()
}

// SetMalformed makes GET answer a body that is not JSON.
func (d *Daemon) SetMalformed(on bool) {
	d.mu.Lock()
	d.malformed = on
	d.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (d *Daemon) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Request(nil), d.requests...)
}

// ── handlers ─────────────────────────────────────────────────────────

type modeBody struct {
	Mode string `json:"mode" binding:"required"`
}

func (d *Daemon) record(c *gin.Context) {
	d.mu.Lock()
	d.requests = append(d.requests, Request{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		Key:       c.GetHeader("X-Key"),
		RequestID: c.GetHeader("X-Request-Id"),
	})
	d.mu.Unlock()
	c.Next()
}

func (d *Daemon) authorize(c *gin.Context) {
	if c.GetHeader("X-Key") != d.key {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid x-key"})
		return
	}
	d.mu.Lock()
	status := d.failStatus
	d.failStatus = 0
	d.mu.Unlock()
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Next()
}

func (d *Daemon) getOutbound(c *gin.Context) {
	d.mu.Lock()
	m, malformed := d.mode, d.malformed
	d.mu.Unlock()

	if malformed {
		c.Data(http.StatusOK, "application/json", []byte(`{"mode":`))
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": m})
}

func (d *Daemon) setOutbound(c *gin.Context) {
	var req modeBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if n := len(d.requests); n > 0 {
		d.requests[n-1].Body = req.Mode
	}
	if d.unsupported[req.Mode] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode not supported"})
		return
	}
	d.mode = req.Mode
	c.JSON(http.StatusOK, gin.H{"mode": d.mode})
}
