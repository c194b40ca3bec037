package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/fsnotify/fsnotify"
)

const certDebounce = 100 * time.Millisecond

// certWatcher reloads the TLS credential when the certificate or key file
// changes on disk. The parent directories are watched, so files replaced by
// rename (as most renewal tools do) are picked up.
type certWatcher struct {
	watcher  *fsnotify.Watcher
	certFile string
	keyFile  string
	store    *certStore
	logger   *logger.Logger

	mu    sync.Mutex
	timer *time.Timer
}

func newCertWatcher(certFile, keyFile string, store *certStore, logger *logger.Logger) (*certWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating certificate watcher: %w", err)
	}

	certFile, keyFile = filepath.Clean(certFile), filepath.Clean(keyFile)
	dirs := map[string]struct{}{
		filepath.Dir(certFile): {},
		filepath.Dir(keyFile):  {},
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	return &certWatcher{
		watcher:  watcher,
		certFile: certFile,
		keyFile:  keyFile,
		store:    store,
		logger:   logger,
	}, nil
}

// run processes file events until ctx is done.
func (w *certWatcher) run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = w.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("certificate file changed")
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("certificate watcher error")
		}
	}
}

func (w *certWatcher) relevant(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)
	if name != w.certFile && name != w.keyFile {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// schedule coalesces bursts of events into one reload.
func (w *certWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(certDebounce, w.reload)
}

func (w *certWatcher) reload() {
	certPEM, err := os.ReadFile(w.certFile)
	if err != nil {
		w.logger.Warn().Err(err).Str("cert_file", w.certFile).Msg("reading certificate failed")
		return
	}
	keyPEM, err := os.ReadFile(w.keyFile)
	if err != nil {
		w.logger.Warn().Err(err).Str("key_file", w.keyFile).Msg("reading key failed")
		return
	}

	if err := w.store.SetCerts(Certs{Cert: certPEM, Key: keyPEM}); err == nil {
		w.logger.Info().Str("cert_file", w.certFile).Msg("certificate reloaded")
	}
}
