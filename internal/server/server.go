// Package server exposes an HTTP view over a set of spawned processes for
// observability: a JSON status listing and the Prometheus metrics endpoint.
package server

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tomjaguarpaw/process/internal/metrics"
	"github.com/tomjaguarpaw/process/internal/proc"
)

// Registry tracks live process handles by name. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	handle    *proc.Handle
	command   string
	startedAt time.Time
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Add registers a spawned handle under name, replacing any previous entry.
func (r *Registry) Add(name, command string, h *proc.Handle) {
	r.mu.Lock()
	r.entries[name] = &entry{handle: h, command: command, startedAt: time.Now()}
	r.mu.Unlock()
}

// Remove drops the entry for name, if any.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.entries, name)
	r.mu.Unlock()
}

// ProcessInfo is the status JSON for one tracked process.
type ProcessInfo struct {
	Name        string    `json:"name"`
	Command     string    `json:"command"`
	PID         int       `json:"pid,omitempty"`
	Running     bool      `json:"running"`
	StartedAt   time.Time `json:"started_at"`
	ExitCode    int       `json:"exit_code,omitempty"`
	Interrupted bool      `json:"interrupted,omitempty"`
}

// Snapshot polls every tracked handle without blocking and returns the
// current view sorted by name.
func (r *Registry) Snapshot() []ProcessInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProcessInfo, 0, len(r.entries))
	for name, e := range r.entries {
		info := ProcessInfo{Name: name, Command: e.command, StartedAt: e.startedAt}
		if st, done := e.handle.Poll(); done {
			info.ExitCode = st.Code
			info.Interrupted = st.Interrupted
		} else {
			info.Running = true
			if pid, ok := e.handle.Pid(); ok {
				info.PID = pid
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server or mux. Endpoints: GET /status, GET /metrics.
func Handler(reg *Registry) http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.Snapshot())
	})
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// New starts a standalone status server on addr. Shut it down via
// http.Server's Close or Shutdown.
func New(addr string, reg *Registry) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(reg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
