// Package servicemetrics counts calls, failures and latency of every
// request-reply service and event consumer registered with the application.
package servicemetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Stats is a point-in-time view of one service.
type Stats struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

type counters struct {
	requests  atomic.Int64
	errors    atomic.Int64
	latencyNS atomic.Int64
}

// Middleware wraps handlers as they are registered. A call counts as an
// error when the handler fails or when its reply carries an "error" field.
type Middleware struct {
	mu       sync.RWMutex
	services map[string]*counters
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Middleware)(nil)
var _ mono.MiddlewareModule = (*Middleware)(nil)

// New creates the service metrics middleware.
func New(logger types.Logger) *Middleware {
	return &Middleware{
		services: make(map[string]*counters),
		logger:   logger.WithModule("service-metrics"),
	}
}

func (m *Middleware) Name() string {
	return "service-metrics"
}

func (m *Middleware) Start(_ context.Context) error {
	m.logger.Info("Service metrics middleware started")
	return nil
}

func (m *Middleware) Stop(_ context.Context) error {
	var requests, errs int64
	for _, s := range m.Snapshot() {
		requests += s.Requests
		errs += s.Errors
	}
	m.logger.Info("Service metrics middleware stopped", "requests", requests, "errors", errs)
	return nil
}

// OnModuleLifecycle logs module start-up time.
func (m *Middleware) OnModuleLifecycle(
	_ context.Context,
	event types.ModuleLifecycleEvent,
) types.ModuleLifecycleEvent {
	if event.Type == types.ModuleStartedEvent {
		m.logger.Debug("Module started",
			"module", event.ModuleName,
			"startup_ms", event.Duration.Milliseconds())
	}
	return event
}

// OnServiceRegistration wraps request-reply handlers.
func (m *Middleware) OnServiceRegistration(
	_ context.Context,
	reg types.ServiceRegistration,
) types.ServiceRegistration {
	if reg.Type != types.ServiceTypeRequestReply || reg.RequestHandler == nil {
		return reg
	}

	stats := m.counters(reg.Name)
	original := reg.RequestHandler
	reg.RequestHandler = func(ctx context.Context, req *types.Msg) ([]byte, error) {
		start := time.Now()
		resp, err := original(ctx, req)
		stats.observe(time.Since(start), err != nil || carriesError(resp))
		return resp, err
	}
	return reg
}

func (m *Middleware) OnConfigurationChange(
	_ context.Context,
	event types.ConfigurationEvent,
) types.ConfigurationEvent {
	return event
}

func (m *Middleware) OnOutgoingMessage(
	octx types.OutgoingMessageContext,
) types.OutgoingMessageContext {
	return octx
}

// OnEventConsumerRegistration wraps event consumers under "event:<name>".
func (m *Middleware) OnEventConsumerRegistration(
	_ context.Context,
	entry types.EventConsumerEntry,
) types.EventConsumerEntry {
	if entry.Handler == nil {
		return entry
	}

	stats := m.counters("event:" + entry.EventDef.Name)
	original := entry.Handler
	entry.Handler = func(ctx context.Context, msg *types.Msg) error {
		start := time.Now()
		err := original(ctx, msg)
		stats.observe(time.Since(start), err != nil)
		return err
	}
	return entry
}

func (m *Middleware) OnEventStreamConsumerRegistration(
	_ context.Context,
	entry types.EventStreamConsumerEntry,
) types.EventStreamConsumerEntry {
	return entry
}

// Snapshot returns the current stats keyed by service name.
func (m *Middleware) Snapshot() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Stats, len(m.services))
	for name, c := range m.services {
		out[name] = c.stats()
	}
	return out
}

// Names returns the observed service names in sorted order.
func (m *Middleware) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.services))
	for name := range m.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Middleware) counters(name string) *counters {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.services[name]
	if !ok {
		c = &counters{}
		m.services[name] = c
	}
	return c
}

func (c *counters) observe(latency time.Duration, failed bool) {
	c.requests.Add(1)
	c.latencyNS.Add(int64(latency))
	if failed {
		c.errors.Add(1)
	}
}

func (c *counters) stats() Stats {
	s := Stats{
		Requests: c.requests.Load(),
		Errors:   c.errors.Load(),
	}
	if s.Requests > 0 {
		s.AvgLatencyMS = float64(c.latencyNS.Load()) / float64(s.Requests) / float64(time.Millisecond)
	}
	return s
}

// carriesError reports whether a JSON reply has a non-null top-level
// "error" field.
func carriesError(resp []byte) bool {
	if !bytes.Contains(resp, []byte(`"error"`)) {
		return false
	}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(resp, &envelope); err != nil {
		return false
	}
	return len(envelope.Error) > 0 && !bytes.Equal(envelope.Error, []byte("null"))
}
