// Package filewatch feeds a dynamic.Resource from a file, reloading it when the file changes.
package filewatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Station-Manager/wireplan/dynamic"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 250 * time.Millisecond

// Decoder turns the file contents into the resource value.
type Decoder[T any] func([]byte) (T, error)

type options struct {
	logger   *zap.Logger
	debounce time.Duration
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDebounce sets how long the watcher waits after the last change event before reloading.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watcher owns the goroutine that reloads the file. It is the resource's only writer.
type Watcher[T any] struct {
	path     string
	decode   Decoder[T]
	res      *dynamic.Resource[T]
	fs       *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	done     chan struct{}
}

// Watch loads path once and keeps the returned resource up to date until ctx is cancelled.
// A reload that fails to read or decode is logged and the previous value kept.
func Watch[T any](ctx context.Context, path string, decode Decoder[T], opts ...Option) (*Watcher[T], error) {
	o := options{logger: zap.NewNop(), debounce: defaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("filewatch: resolve %s: %w", path, err)
	}
	initial, err := load(abs, decode)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filewatch: create watcher: %w", err)
	}
	// Watch the directory: editors and config tooling often replace the file instead of writing it.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("filewatch: watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher[T]{
		path:     abs,
		decode:   decode,
		res:      dynamic.New(initial),
		fs:       fsw,
		logger:   o.logger.With(zap.String("path", abs)),
		debounce: o.debounce,
		done:     make(chan struct{}),
	}
	go w.loop(ctx)
	w.logger.Debug("watching file")
	return w, nil
}

func (w *Watcher[T]) Resource() *dynamic.Resource[T] {
	return w.res
}

// Done is closed once the watcher has stopped after ctx was cancelled.
func (w *Watcher[T]) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher[T]) loop(ctx context.Context) {
	defer close(w.done)
	defer w.fs.Close()

	// Armed only by change events. Since Go 1.23 a stopped timer delivers no stale tick.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("stopping file watcher")
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("file changed", zap.String("operation", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher[T]) reload() {
	v, err := load(w.path, w.decode)
	if err != nil {
		w.logger.Warn("reload failed, keeping previous value", zap.Error(err))
		return
	}
	w.res.Set(v)
	w.logger.Info("file reloaded")
}

func load[T any](path string, decode Decoder[T]) (T, error) {
	var zero T
	raw, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("filewatch: read %s: %w", path, err)
	}
	v, err := decode(raw)
	if err != nil {
		return zero, fmt.Errorf("filewatch: decode %s: %w", path, err)
	}
	return v, nil
}
