package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/lineup/internal/logging"
	"github.com/aretw0/lineup/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from the Stdout prompt).
func createLogger(debug, jsonLogs bool) *slog.Logger {
	if !debug {
		return logging.NewNop()
	}
	var opts []logging.Option
	if jsonLogs {
		opts = append(opts, logging.WithJSON())
	}
	return logging.New(slog.LevelDebug, opts...)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnAccept: func(ctx context.Context, e *domain.InputEvent) {
			logger.Debug("Input Accepted", "origin", e.Origin, "raw", e.Raw)
		},
		OnSuppress: func(ctx context.Context, e *domain.InputEvent) {
			logger.Debug("Input Suppressed", "origin", e.Origin)
		},
		OnComplete: func(ctx context.Context, e *domain.InputEvent) {
			if e.Failed {
				logger.Debug("Input Done (Failed)", "origin", e.Origin, "duration", e.Duration)
			} else {
				logger.Debug("Input Done", "origin", e.Origin, "duration", e.Duration)
			}
		},
		OnPrompt: func(ctx context.Context, e *domain.SessionEvent) {
			logger.Debug("Prompt")
		},
	}
}

func logCompletion(w io.Writer, sig os.Signal, quiet bool) {
	if quiet {
		return
	}
	switch sig {
	case nil:
		printSystemMessage(w, "Input ended.")
	case os.Interrupt:
		fmt.Fprintf(w, "[CTRL+C]\n")
		printSystemMessage(w, "Interrupted.")
	default:
		fmt.Fprintf(w, "\n")
		printSystemMessage(w, "Terminated.")
	}
}
