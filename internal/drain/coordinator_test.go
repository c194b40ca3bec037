package drain

import (
	"bytes"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu    sync.Mutex
	count int
}

func (f *fakeCounter) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *fakeCounter) set(n int) {
	f.mu.Lock()
	f.count = n
	f.mu.Unlock()
}

type fakeConn struct {
	net.Conn
	closed atomic.Int32
}

func (c *fakeConn) Close() error {
	c.closed.Add(1)
	return nil
}

func (c *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000}
}

func newConns(n int) []*fakeConn {
	conns := make([]*fakeConn, n)
	for i := range conns {
		conns[i] = &fakeConn{}
	}
	return conns
}

func TestCoordinator_WaitsForInFlightRequests(t *testing.T) {
	counter := &fakeCounter{count: 3}
	c := NewCoordinator(counter, logger.Nop())

	var listenerClosed atomic.Int32
	c.SetListenerCloser(func() error {
		listenerClosed.Add(1)
		return nil
	})
	var deregistered atomic.Int32
	c.OnDeregistered(func() { deregistered.Add(1) })

	// 3 connections carry in-flight requests, 2 are idle keep-alives
	conns := newConns(5)
	for _, conn := range conns {
		c.ConnState(conn, http.StateNew)
	}
	require.Len(t, c.Connections(), 5)

	c.Drain()
	assert.Equal(t, int32(1), listenerClosed.Load())
	assert.Equal(t, Draining, c.State())

	for _, remaining := range []int{2, 1} {
		counter.set(remaining)
		c.RequestFinished()
		for _, conn := range conns {
			assert.Zero(t, conn.closed.Load(), "no connection may close while requests are open")
		}
	}

	counter.set(0)
	c.RequestFinished()

	for _, conn := range conns {
		assert.Equal(t, int32(1), conn.closed.Load())
	}
	assert.Equal(t, Closed, c.State())
	assert.Equal(t, int32(1), deregistered.Load())
	assert.Empty(t, c.Connections())

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel not closed")
	}

	// late events change nothing
	c.RequestFinished()
	c.Drain()
	for _, conn := range conns {
		c.ConnState(conn, http.StateClosed)
		assert.Equal(t, int32(1), conn.closed.Load())
	}
	assert.Equal(t, int32(1), deregistered.Load())
	assert.Equal(t, int32(1), listenerClosed.Load())
}

func TestCoordinator_ImmediateCheckWhenIdle(t *testing.T) {
	c := NewCoordinator(&fakeCounter{}, logger.Nop())
	conns := newConns(2)
	for _, conn := range conns {
		c.ConnState(conn, http.StateNew)
	}

	c.Drain()

	assert.Equal(t, Closed, c.State())
	for _, conn := range conns {
		assert.Equal(t, int32(1), conn.closed.Load())
	}
	<-c.Done()
}

func TestCoordinator_DedupSameOpenCount(t *testing.T) {
	var buf bytes.Buffer
	counter := &fakeCounter{count: 3}
	c := NewCoordinator(counter, logger.NewWithWriter(&buf, "drain"))

	c.Drain()
	counter.set(2)
	c.RequestFinished()
	c.RequestFinished()

	logs := buf.String()
	assert.Equal(t, 1, strings.Count(logs, "waiting on 3 request(s) to complete"))
	assert.Equal(t, 1, strings.Count(logs, "waiting on 2 request(s) to complete"))
}

func TestCoordinator_OscillatingCountLogsEveryDistinctValue(t *testing.T) {
	var buf bytes.Buffer
	counter := &fakeCounter{count: 3}
	c := NewCoordinator(counter, logger.NewWithWriter(&buf, "drain"))
	conn := &fakeConn{}
	c.ConnState(conn, http.StateNew)

	c.Drain()
	for _, n := range []int{2, 3, 2} {
		counter.set(n)
		c.RequestFinished()
		assert.Zero(t, conn.closed.Load())
	}
	counter.set(0)
	c.RequestFinished()

	assert.Equal(t, 4, strings.Count(buf.String(), "waiting on"))
	assert.Equal(t, int32(1), conn.closed.Load())
}

func TestCoordinator_RequestFinishedBeforeDrainIsIgnored(t *testing.T) {
	c := NewCoordinator(&fakeCounter{}, logger.Nop())
	c.RequestFinished()
	assert.Equal(t, Accepting, c.State())
}

func TestCoordinator_ConnState(t *testing.T) {
	c := NewCoordinator(&fakeCounter{count: 1}, logger.Nop())

	var counts []int
	c.OnConnectionChange(func(open int) { counts = append(counts, open) })

	a, b := &fakeConn{}, &fakeConn{}
	c.ConnState(a, http.StateNew)
	c.ConnState(b, http.StateNew)
	c.ConnState(a, http.StateActive)
	c.ConnState(a, http.StateIdle)
	c.ConnState(a, http.StateClosed)
	c.ConnState(a, http.StateClosed)
	c.ConnState(b, http.StateHijacked)

	assert.Equal(t, []int{1, 2, 1, 0}, counts)
	assert.Empty(t, c.Connections())
	assert.Zero(t, a.closed.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "accepting", Accepting.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestCoordinator_BusyConnectionClosedWhenIdle(t *testing.T) {
	counter := &fakeCounter{count: 1}
	c := NewCoordinator(counter, logger.Nop())

	var deregistered atomic.Int32
	c.OnDeregistered(func() { deregistered.Add(1) })

	idle, busy := &fakeConn{}, &fakeConn{}
	c.ConnState(idle, http.StateNew)
	c.ConnState(busy, http.StateNew)
	c.ConnState(busy, http.StateActive)

	c.Drain()
	counter.set(0)
	c.RequestFinished()

	// the busy connection is still writing the last response
	assert.Equal(t, Closed, c.State())
	assert.Equal(t, int32(1), idle.closed.Load())
	assert.Zero(t, busy.closed.Load())
	assert.Zero(t, deregistered.Load())
	require.Len(t, c.Connections(), 1)
	select {
	case <-c.Done():
		t.Fatal("done before the busy connection was closed")
	default:
	}

	c.ConnState(busy, http.StateIdle)
	assert.Equal(t, int32(1), busy.closed.Load())
	assert.Empty(t, c.Connections())
	assert.Equal(t, int32(1), deregistered.Load())
	<-c.Done()

	// the server reports the close it caused
	c.ConnState(busy, http.StateClosed)
	assert.Equal(t, int32(1), deregistered.Load())
}

func TestCoordinator_BusyConnectionClosedByPeer(t *testing.T) {
	c := NewCoordinator(&fakeCounter{}, logger.Nop())
	busy := &fakeConn{}
	c.ConnState(busy, http.StateNew)
	c.ConnState(busy, http.StateActive)

	c.Drain()
	assert.Equal(t, Closed, c.State())

	c.ConnState(busy, http.StateClosed)
	assert.Zero(t, busy.closed.Load())
	<-c.Done()
}

func TestCoordinator_NewConnectionAfterDrainIsRefused(t *testing.T) {
	c := NewCoordinator(&fakeCounter{}, logger.Nop())
	c.Drain()

	late := &fakeConn{}
	c.ConnState(late, http.StateNew)
	assert.Equal(t, int32(1), late.closed.Load())
	assert.Empty(t, c.Connections())
}
