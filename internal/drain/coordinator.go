// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package drain stops a server without cutting off in-flight requests.
//
// The [Coordinator] tracks raw connections through [http.Server.ConnState].
// On [Coordinator.Drain] it closes the listener and checks the number of open
// requests, once immediately and then again after every finished request.
// When the count reaches zero every remaining connection, idle keep-alive
// sockets included, is closed. A connection still writing its last response
// is closed as soon as it turns idle. The coordinator is done once no
// connection is left. There is no timeout: callers that need a deadline race
// [Coordinator.Done] against their own timer.
package drain

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/utils"
	"github.com/MKhiriev/go-http-frame/models"
)

// State is the coordinator's position in Accepting → Draining → Closed.
type State int

const (
	Accepting State = iota
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Accepting:
		return "accepting"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Counter reports the number of open requests.
type Counter interface {
	OpenCount() int
}

// Coordinator drains one server. It is safe for concurrent use.
type Coordinator struct {
	mu            sync.Mutex
	state         State
	lastOpenCount *int
	conns         map[net.Conn]*trackedConn

	counter        Counter
	closeListener  func() error
	onDeregistered []func()
	onConnection   []func(open int)
	done           chan struct{}
	finishOnce     sync.Once

	ids    *utils.UUIDGenerator
	logger *logger.Logger
}

type trackedConn struct {
	record models.ConnectionRecord
	state  http.ConnState
}

// NewCoordinator returns an accepting Coordinator reading open requests from
// counter.
func NewCoordinator(counter Counter, logger *logger.Logger) *Coordinator {
	return &Coordinator{
		state:   Accepting,
		conns:   make(map[net.Conn]*trackedConn),
		counter: counter,
		done:    make(chan struct{}),
		ids:     utils.NewUUIDGenerator(),
		logger:  logger,
	}
}

// SetListenerCloser sets the function that stops accepting new connections.
func (c *Coordinator) SetListenerCloser(fn func() error) {
	c.mu.Lock()
	c.closeListener = fn
	c.mu.Unlock()
}

// OnDeregistered registers fn to run once the drain has completed.
func (c *Coordinator) OnDeregistered(fn func()) {
	c.mu.Lock()
	c.onDeregistered = append(c.onDeregistered, fn)
	c.mu.Unlock()
}

// OnConnectionChange registers fn to run with the number of tracked
// connections whenever it changes.
func (c *Coordinator) OnConnectionChange(fn func(open int)) {
	c.mu.Lock()
	c.onConnection = append(c.onConnection, fn)
	c.mu.Unlock()
}

// ConnState is meant for [http.Server.ConnState]. New connections are
// tracked; closed and hijacked ones are forgotten. Once the drain has
// reached zero requests, connections are closed as they turn idle.
func (c *Coordinator) ConnState(conn net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		c.mu.Lock()
		if c.state == Closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conns[conn] = &trackedConn{
			record: models.ConnectionRecord{
				ID:         c.ids.Generate(),
				RemoteAddr: remoteAddr(conn),
				OpenedAt:   time.Now(),
			},
			state: state,
		}
		open, hooks := len(c.conns), c.onConnection
		c.mu.Unlock()

		notify(hooks, open)
	case http.StateActive:
		c.mu.Lock()
		if tracked, ok := c.conns[conn]; ok {
			tracked.state = state
		}
		c.mu.Unlock()
	case http.StateIdle:
		c.mu.Lock()
		tracked, ok := c.conns[conn]
		if !ok {
			c.mu.Unlock()
			return
		}
		if c.state != Closed {
			tracked.state = state
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		c.closeConn(conn)
		c.untrack(conn)
	case http.StateClosed, http.StateHijacked:
		c.untrack(conn)
	}
}

func (c *Coordinator) untrack(conn net.Conn) {
	c.mu.Lock()
	_, ok := c.conns[conn]
	delete(c.conns, conn)
	open, hooks := len(c.conns), c.onConnection
	finished := c.state == Closed && open == 0
	c.mu.Unlock()

	if ok {
		notify(hooks, open)
		if finished {
			c.finish(0)
		}
	}
}

// Connections returns a snapshot of the tracked connections.
func (c *Coordinator) Connections() []models.ConnectionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]models.ConnectionRecord, 0, len(c.conns))
	for _, tracked := range c.conns {
		records = append(records, tracked.record)
	}
	return records
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once every request has finished and every connection has
// been closed.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Drain stops the listener and starts waiting for open requests. Only the
// first call has an effect.
func (c *Coordinator) Drain() {
	c.mu.Lock()
	if c.state != Accepting {
		c.mu.Unlock()
		return
	}
	c.state = Draining
	closeListener := c.closeListener
	c.mu.Unlock()

	c.logger.Info().Msg("draining: no longer accepting connections")
	if closeListener != nil {
		if err := closeListener(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.logger.Warn().Err(err).Msg("error closing listener")
		}
	}

	c.check()
}

// RequestFinished re-checks the open request count while draining.
func (c *Coordinator) RequestFinished() {
	c.check()
}

// check acts on every distinct open count: a nonzero count is logged, zero
// closes every tracked connection that is not busy writing a response.
func (c *Coordinator) check() {
	c.mu.Lock()
	if c.state != Draining {
		c.mu.Unlock()
		return
	}

	count := c.counter.OpenCount()
	if c.lastOpenCount != nil && *c.lastOpenCount == count {
		c.mu.Unlock()
		return
	}
	c.lastOpenCount = &count

	if count > 0 {
		c.mu.Unlock()
		c.logger.Info().Int("open_requests", count).Msgf("waiting on %d request(s) to complete", count)
		return
	}

	c.state = Closed
	closing := make([]net.Conn, 0, len(c.conns))
	for conn, tracked := range c.conns {
		if tracked.state == http.StateActive {
			continue
		}
		closing = append(closing, conn)
		delete(c.conns, conn)
	}
	open, hooks := len(c.conns), c.onConnection
	c.mu.Unlock()

	for _, conn := range closing {
		c.closeConn(conn)
	}
	if len(closing) > 0 {
		notify(hooks, open)
	}

	if open > 0 {
		c.logger.Info().Int("busy_connections", open).Msg("closing connections once their responses are written")
		return
	}
	c.finish(len(closing))
}

// finish completes the drain exactly once.
func (c *Coordinator) finish(closed int) {
	c.finishOnce.Do(func() {
		c.mu.Lock()
		deregistered := c.onDeregistered
		c.mu.Unlock()

		c.logger.Info().Int("closed_connections", closed).Msg("drained")
		for _, fn := range deregistered {
			fn()
		}
		close(c.done)
	})
}

func (c *Coordinator) closeConn(conn net.Conn) {
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Debug().Err(err).Str("remote_addr", remoteAddr(conn)).Msg("error closing connection")
	}
}

func notify(hooks []func(int), open int) {
	for _, fn := range hooks {
		fn(open)
	}
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
