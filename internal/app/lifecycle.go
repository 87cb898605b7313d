package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a function called during shutdown.
// It receives a context that may be cancelled if shutdown times out.
type ShutdownFunc func(ctx context.Context) error

// Lifecycle coordinates interruption of a run by OS signals and the orderly
// release of resources (log files, metrics output) afterwards.
type Lifecycle struct {
	mu            sync.Mutex
	shutdownFuncs []ShutdownFunc
	shutdownCh    chan struct{}
	timeout       time.Duration
	shutdownOnce  sync.Once
	interrupt     os.Signal
}

// NewLifecycle creates a new lifecycle manager with the specified shutdown timeout.
func NewLifecycle(timeout time.Duration) *Lifecycle {
	return &Lifecycle{
		shutdownCh: make(chan struct{}),
		timeout:    timeout,
	}
}

// OnShutdown registers a function to be called during shutdown.
// Functions are called in reverse order of registration (LIFO).
func (l *Lifecycle) OnShutdown(fn ShutdownFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shutdownFuncs = append(l.shutdownFuncs, fn)
}

// SignalContext returns a context that is cancelled on SIGINT or SIGTERM, or
// when shutdown starts. The returned cancel function releases the signal
// handler.
func (l *Lifecycle) SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			l.mu.Lock()
			l.interrupt = sig
			l.mu.Unlock()
			cancel()
		case <-l.shutdownCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Signal returns the signal that interrupted a run, or nil.
func (l *Lifecycle) Signal() os.Signal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interrupt
}

// Shutdown calls all registered shutdown functions in reverse order of
// registration. Only the first call has an effect. Returns the last error
// encountered, if any.
func (l *Lifecycle) Shutdown() error {
	var lastErr error

	l.shutdownOnce.Do(func() {
		close(l.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		l.mu.Lock()
		funcs := append([]ShutdownFunc(nil), l.shutdownFuncs...)
		l.mu.Unlock()

		for i := len(funcs) - 1; i >= 0; i-- {
			if err := funcs[i](ctx); err != nil {
				lastErr = err
			}
		}
	})

	return lastErr
}

// IsShuttingDown returns true if shutdown has been initiated.
func (l *Lifecycle) IsShuttingDown() bool {
	select {
	case <-l.shutdownCh:
		return true
	default:
		return false
	}
}
