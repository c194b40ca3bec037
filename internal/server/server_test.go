//go:build unix

package server

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/codes"
	"github.com/MKhiriev/go-http-frame/internal/config"
	"github.com/MKhiriev/go-http-frame/internal/drain"
	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/response"
	"github.com/MKhiriev/go-http-frame/internal/utils"
	"github.com/MKhiriev/go-http-frame/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pingRoute(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_ = response.FromRequest(r).Success(w, codes.Success, "pong")
	})
}

func TestServer_UnixSocketEndToEnd(t *testing.T) {
	srv, path := newUnixServer(t, nil)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	previous := setUmask(0o022)
	defer setUmask(previous)

	validate, err := srv.Validate(map[string]any{
		"body": map[string]any{
			"type":     "object",
			"required": []string{"message"},
			"properties": map[string]any{
				"message": map[string]any{"type": "string", "minLength": 1},
			},
		},
	})
	require.NoError(t, err)

	srv.Route(pingRoute)
	srv.Route(func(r chi.Router) {
		r.With(validate).Post("/echo", func(w http.ResponseWriter, r *http.Request) {
			_ = response.FromRequest(r).Success(w, codes.Success, utils.Section(r, "body")["message"])
		})
	})
	require.NoError(t, srv.Listen())
	assert.Equal(t, 0o022, setUmask(0o022), "umask restored after bind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSocket, info.Mode().Type())
	assert.Equal(t, os.FileMode(0o777), info.Mode().Perm())
	assert.Equal(t, path, srv.Addr().String())

	client := unixClient(path)

	resp, err := client.R().Get("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.NotEmpty(t, resp.Header().Get("X-Request-ID"))
	env := decodeEnvelope(t, resp.Body())
	assert.True(t, env.Success)
	assert.Equal(t, codes.Success, env.Code)
	assert.Equal(t, "pong", env.Data)

	resp, err = client.R().Get("/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	assert.Equal(t, codes.NotFound, decodeEnvelope(t, resp.Body()).Code)

	resp, err = client.R().Post("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode(), "method mismatch answers like an unknown path")

	resp, err = client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"message": "hello"}).
		Post("/echo")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	env = decodeEnvelope(t, resp.Body())
	assert.True(t, env.Success)
	assert.Equal(t, "hello", env.Data)

	resp, err = client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"other": 1}).
		Post("/echo")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	env = decodeEnvelope(t, resp.Body())
	assert.False(t, env.Success)
	assert.Equal(t, codes.Validation, env.Code)
	assert.Equal(t, "required", env.Fields["message"].Type)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, drain.Closed, srv.State())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestServer_Listen(t *testing.T) {
	t.Run("twice", func(t *testing.T) {
		srv, _ := newUnixServer(t, nil)
		require.NoError(t, srv.Listen())
		assert.ErrorIs(t, srv.Listen(), ErrAlreadyListening)
	})

	t.Run("no bind target", func(t *testing.T) {
		srv, _ := newUnixServer(t, func(cfg *config.StructuredConfig) { cfg.Server.File = "" })
		assert.ErrorIs(t, srv.Listen(), ErrNoBindTarget)
		assert.Nil(t, srv.Addr())
	})

	t.Run("bind error", func(t *testing.T) {
		srv, _ := newUnixServer(t, func(cfg *config.StructuredConfig) {
			cfg.Server.File = filepath.Join(cfg.Server.File, "nested", "s.sock")
		})
		assert.Error(t, srv.Listen())
		assert.Nil(t, srv.Addr())
	})

	t.Run("missing certificate", func(t *testing.T) {
		srv, _ := newUnixServer(t, func(cfg *config.StructuredConfig) {
			cfg.Server.TLS = config.TLS{Enabled: true, CertFile: "/nonexistent.crt", KeyFile: "/nonexistent.key"}
		})
		assert.Error(t, srv.Listen())
	})
}

func TestNew_CodesFile(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "codes.yaml")
	require.NoError(t, os.WriteFile(valid, []byte("app.created: Created\n"), 0o600))

	cfg := *config.Defaults()
	cfg.App.CodesFile = valid
	srv, err := New(cfg, logger.Nop(), Options{})
	require.NoError(t, err)
	env, ok := srv.Registry().Lookup("app.created")
	require.True(t, ok)
	assert.Equal(t, "Created", env.Message)

	cfg.App.CodesFile = filepath.Join(dir, "missing.yaml")
	_, err = New(cfg, logger.Nop(), Options{})
	assert.Error(t, err)
}

func TestServer_LifecycleCallbacks(t *testing.T) {
	srv, path := newUnixServer(t, nil)
	srv.Route(pingRoute)

	var registered, opened, finished, deregistered atomic.Int32
	var (
		mu    sync.Mutex
		paths []string
	)
	srv.OnRegistered(func() { registered.Add(1) })
	srv.OnOpened(func(_ *http.Request, record models.RequestRecord) {
		opened.Add(1)
		mu.Lock()
		paths = append(paths, record.Path)
		mu.Unlock()
	})
	srv.OnFinished(func(*http.Request, models.RequestRecord) { finished.Add(1) })
	srv.OnDeregistered(func() { deregistered.Add(1) })

	require.NoError(t, srv.Listen())
	assert.Equal(t, int32(1), registered.Load())

	client := unixClient(path)
	for range 2 {
		_, err := client.R().Get("/ping?x=1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), opened.Load())
	require.Eventually(t, func() bool { return finished.Load() == 2 }, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"/ping?x=1", "/ping?x=1"}, paths)
	mu.Unlock()

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, int32(1), deregistered.Load())
}

func TestServer_WaitForReady(t *testing.T) {
	srv, path := newUnixServer(t, func(cfg *config.StructuredConfig) { cfg.Server.WaitForReady = true })
	srv.Route(pingRoute)
	require.NoError(t, srv.Listen())
	client := unixClient(path)

	assert.False(t, srv.Ready())
	resp, err := client.R().Get("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	assert.Equal(t, codes.NotReady, decodeEnvelope(t, resp.Body()).Code)

	srv.MarkReady()
	assert.True(t, srv.Ready())
	resp, err = client.R().Get("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestServer_Ready_WithoutGate(t *testing.T) {
	srv, _ := newUnixServer(t, nil)
	assert.True(t, srv.Ready())
}

func TestServer_RecoversPanics(t *testing.T) {
	srv, path := newUnixServer(t, nil)
	srv.Route(func(r chi.Router) {
		r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	})
	require.NoError(t, srv.Listen())

	resp, err := unixClient(path).R().Get("/boom")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
	env := decodeEnvelope(t, resp.Body())
	assert.False(t, env.Success)
	assert.Equal(t, codes.GenericError, env.Code)
}

func TestServer_ValidationAndUseAt(t *testing.T) {
	srv, path := newUnixServer(t, nil)

	validate, err := srv.Validate(map[string]any{
		"query": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"n": map[string]any{"type": "integer", "maximum": 10},
			},
		},
	})
	require.NoError(t, err)

	srv.UseAt("/api", func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Scoped", "yes")
			next.ServeHTTP(w, r)
		})
	})
	srv.Route(pingRoute)
	srv.Route(func(r chi.Router) {
		r.With(validate).Get("/api/n", func(w http.ResponseWriter, r *http.Request) {
			_ = response.FromRequest(r).Success(w, codes.Success, nil)
		})
	})
	require.NoError(t, srv.Listen())
	client := unixClient(path)

	resp, err := client.R().Get("/api/n?n=3")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "yes", resp.Header().Get("X-Scoped"))

	resp, err = client.R().Get("/api/n?n=" + strconv.Itoa(11))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	env := decodeEnvelope(t, resp.Body())
	assert.Equal(t, codes.Validation, env.Code)
	assert.Equal(t, "maximum", env.Fields["n"].Type)

	resp, err = client.R().Get("/ping")
	require.NoError(t, err)
	assert.Empty(t, resp.Header().Get("X-Scoped"))
}

func TestServer_Metrics(t *testing.T) {
	srv, path := newUnixServer(t, func(cfg *config.StructuredConfig) { cfg.Server.Metrics.Enabled = true })
	srv.Route(pingRoute)
	require.NoError(t, srv.Listen())
	require.NotNil(t, srv.Metrics())

	client := unixClient(path)
	_, err := client.R().Get("/ping")
	require.NoError(t, err)

	resp, err := client.R().Get("/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	body := resp.String()
	assert.Contains(t, body, `httpframe_requests_total{method="GET",route="/ping",status="200"} 1`)
	assert.Contains(t, body, "httpframe_open_connections")
}

func TestServer_DrainWaitsForInFlightRequests(t *testing.T) {
	srv, path := newUnixServer(t, nil)

	releases := []chan struct{}{make(chan struct{}), make(chan struct{}), make(chan struct{})}
	srv.Route(pingRoute)
	srv.Route(func(r chi.Router) {
		r.Get("/slow/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.Atoi(chi.URLParam(r, "id"))
			<-releases[id]
			_ = response.FromRequest(r).Success(w, codes.Success, id)
		})
	})
	require.NoError(t, srv.Listen())

	busy := make([]net.Conn, len(releases))
	busyReaders := make([]*bufio.Reader, len(releases))
	for i := range busy {
		conn, reader := dialUnix(t, path)
		busy[i], busyReaders[i] = conn, reader
		writeGet(t, conn, "/slow/"+strconv.Itoa(i))
	}

	idle := make([]net.Conn, 2)
	for i := range idle {
		conn, reader := dialUnix(t, path)
		idle[i] = conn
		writeGet(t, conn, "/ping")
		resp, _ := readResponse(t, reader)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	require.Eventually(t, func() bool { return srv.tracker.OpenCount() == len(releases) }, 2*time.Second, 5*time.Millisecond)

	srv.Close()
	assert.Equal(t, drain.Draining, srv.State())
	_, err := net.Dial("unix", path)
	assert.Error(t, err, "the listener stops accepting")

	for i := 0; i < 2; i++ {
		close(releases[i])
		resp, body := readResponse(t, busyReaders[i])
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(i), decodeEnvelope(t, body).Data)
	}

	for _, conn := range append(idle, busy[2]) {
		assert.True(t, connOpen(conn), "no connection closes while a request is open")
	}
	select {
	case <-srv.Done():
		t.Fatal("drained with a request in flight")
	default:
	}

	close(releases[2])
	resp, body := readResponse(t, busyReaders[2])
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), decodeEnvelope(t, body).Data)

	select {
	case <-srv.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not complete")
	}
	assert.Equal(t, drain.Closed, srv.State())

	for _, conn := range append(idle, busy...) {
		assert.True(t, connClosed(conn))
	}
}

func TestServer_RunServer(t *testing.T) {
	t.Run("graceful", func(t *testing.T) {
		srv, _ := newUnixServer(t, nil)
		srv.Route(pingRoute)

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- srv.RunServer(ctx) }()

		require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 5*time.Millisecond)
		cancel()

		select {
		case err := <-errc:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("RunServer did not return")
		}
		assert.Equal(t, drain.Closed, srv.State())
	})

	t.Run("forced exit", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		srv, path := newUnixServer(t, func(cfg *config.StructuredConfig) {
			cfg.App.ForceExitAfter = 50 * time.Millisecond
		})
		srv.Route(func(r chi.Router) {
			r.Get("/block", func(w http.ResponseWriter, r *http.Request) { <-release })
		})

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- srv.RunServer(ctx) }()
		require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 5*time.Millisecond)

		conn, _ := dialUnix(t, path)
		writeGet(t, conn, "/block")
		require.Eventually(t, func() bool { return srv.tracker.OpenCount() == 1 }, 2*time.Second, 5*time.Millisecond)

		cancel()
		select {
		case err := <-errc:
			assert.ErrorIs(t, err, ErrForcedExit)
		case <-time.After(2 * time.Second):
			t.Fatal("RunServer did not return")
		}
		assert.Equal(t, drain.Draining, srv.State())
	})

	t.Run("listen error", func(t *testing.T) {
		srv, _ := newUnixServer(t, func(cfg *config.StructuredConfig) { cfg.Server.File = "" })
		assert.ErrorIs(t, srv.RunServer(context.Background()), ErrNoBindTarget)
	})
}

func TestServer_SetCertsWithoutTLS(t *testing.T) {
	srv, _ := newUnixServer(t, nil)
	assert.ErrorIs(t, srv.SetCerts(Certs{}), ErrTLSDisabled)
}
