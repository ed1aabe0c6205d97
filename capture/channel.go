package capture

// This file contains the per-run ingestion endpoint. The channel binds
// an ephemeral loopback port, accepts event batches from the spawned
// subprocess, and applies them to the target in arrival order.

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const maxBatchBytes = 32 << 20 // screenshots arrive base64-encoded

// Channel is an ephemeral loopback HTTP endpoint for one run.
type Channel struct {
	logger   zerolog.Logger
	target   Target
	listener net.Listener
	server   *http.Server

	// applyMu serializes batch application so events for a run are
	// handled strictly in arrival order.
	applyMu sync.Mutex

	closeOnce sync.Once
}

// NewChannel binds a fresh loopback endpoint forwarding into target.
func NewChannel(logger zerolog.Logger, target Target) (*Channel, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to bind capture channel: %w", err)
	}

	c := &Channel{
		logger:   logger,
		target:   target,
		listener: listener,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", c.handleEvents)
	mux.HandleFunc("/", c.handleEvents)
	c.server = &http.Server{Handler: mux}

	go func() {
		if err := c.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Warn().Err(err).Msg("Capture channel stopped unexpectedly")
		}
	}()

	logger.Debug().Str("addr", c.Addr()).Msg("Capture channel listening")
	return c, nil
}

// Addr returns the channel's base URL, suitable for injection into the
// subprocess environment.
func (c *Channel) Addr() string {
	return fmt.Sprintf("http://%s", c.listener.Addr().String())
}

// Close tears the channel down. Safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.server.Shutdown(ctx); err != nil {
			c.server.Close()
		}
		c.logger.Debug().Msg("Capture channel closed")
	})
}

func (c *Channel) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, `{"error":"method not allowed"}`)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBatchBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"unreadable body"}`)
		return
	}

	events, err := DecodeBatch(body)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Rejected capture batch")
		writeJSON(w, http.StatusBadRequest, fmt.Sprintf(`{"error":%q}`, err.Error()))
		return
	}

	// Decode succeeded for the whole batch; apply atomically.
	c.applyMu.Lock()
	for _, ev := range events {
		c.apply(ev)
	}
	c.applyMu.Unlock()

	writeJSON(w, http.StatusOK, `{"ok":true}`)
}

func (c *Channel) apply(ev Event) {
	switch ev.Type {
	case EventSessionStart, EventSessionEnd:
		c.logger.Debug().Str("event", ev.Type).Str("session", ev.SessionID).Msg("Session event")
	case EventTestStart:
		c.logger.Debug().Str("file", ev.File).Str("title", ev.Title).Msg("Test started")
		if obs, ok := c.target.(StatusObserver); ok {
			obs.OnTestStart(ev.File, ev.Title)
		}
	case EventTestEnd:
		c.target.SetCurrentAction("")
	case EventActionStart:
		c.target.SetCurrentAction(ev.Label)
	case EventActionWaiting:
		if obs, ok := c.target.(StepObserver); ok {
			obs.OnStep("waiting for " + ev.Label)
		}
	case EventActionCapture:
		c.target.AppendAction(*ev.Action)
	case EventError:
		// Capture-side errors are surfaced but never abort the run.
		c.logger.Warn().Str("message", ev.Message).Msg("Capture error reported by subprocess")
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
