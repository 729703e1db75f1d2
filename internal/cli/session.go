package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/aretw0/lineup"
	httpAdapter "github.com/aretw0/lineup/internal/adapters/http"
	"github.com/aretw0/lineup/internal/config"
	"github.com/aretw0/lineup/internal/presentation/tui"
	"github.com/aretw0/lineup/pkg/adapters/redis"
	"github.com/aretw0/lineup/pkg/domain"
	"github.com/aretw0/lineup/pkg/history"
	"github.com/aretw0/lineup/pkg/observability"
	"github.com/aretw0/lineup/pkg/parser"
	"github.com/aretw0/lineup/pkg/source"
)

// app is one running echo session with its optional status surface.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	sess    *lineup.Session
	out     io.Writer
	metrics *observability.Metrics
	events  *httpAdapter.Broadcaster
	wg      sync.WaitGroup
}

// openSource picks the line source described by cfg.
func openSource(cfg config.Config, in, out *os.File, logger *slog.Logger) (source.Source, error) {
	if cfg.Redis.Enabled() {
		src, err := redis.New(cfg.Redis.URL,
			redis.WithKey(cfg.Redis.Key),
			redis.WithPromptChannel(cfg.Redis.PromptChannel),
			redis.WithPopTimeout(cfg.Redis.PopTimeout),
			redis.WithPrompt(cfg.Prompt),
			redis.WithHistory(history.NewBuffer(cfg.HistorySize)),
			redis.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	prompt := cfg.Prompt
	if source.IsInteractive(in) {
		prompt = tui.StylePrompt(out, prompt)
	}
	return source.Open(in, out,
		source.WithPrompt(prompt),
		source.WithHistorySize(cfg.HistorySize),
		source.WithLogger(logger),
	)
}

// newApp wires the echo listeners, hooks and metrics around src.
// Output goes through src when it is a writer, so it does not clobber the prompt.
func newApp(cfg config.Config, src source.Source, stdout io.Writer, logger *slog.Logger) (*app, error) {
	p, err := parser.ByName(cfg.Parser)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		out:     source.Output(src, stdout),
		metrics: observability.NewMetrics(),
		events:  httpAdapter.NewBroadcaster(64),
	}

	opts := []lineup.Option{
		lineup.WithSource(src),
		lineup.WithParser(parser.Sanitized(p, cfg.MaxInputSize)),
		lineup.WithLogger(logger),
		lineup.WithHooks(a.metrics.Hooks()),
		lineup.WithHooks(a.events.Hooks()),
	}
	if cfg.Debug {
		opts = append(opts, lineup.WithHooks(createDebugHooks(logger)))
	}
	if cfg.StartSuppressed {
		opts = append(opts, lineup.WithStartSuppressed())
	}

	sess, err := lineup.New(opts...)
	if err != nil {
		return nil, err
	}
	a.sess = sess

	e := &echo{out: a.out, delay: cfg.Delay}
	if cfg.Render {
		render, err := tui.NewRenderer()
		if err != nil {
			_ = sess.Close()
			return nil, err
		}
		e.render = render
	}
	sess.OnData(e.onData)
	sess.OnError(e.onError)
	return a, nil
}

// serve starts the status surface in the background when an address is set.
func (a *app) serve(ctx context.Context, ready func(net.Addr)) {
	if a.cfg.Status.Addr == "" {
		return
	}
	h := httpAdapter.NewHandler(a.sess,
		httpAdapter.WithMetrics(a.metrics.Handler()),
		httpAdapter.WithEvents(a.events),
		httpAdapter.WithVersion(lineup.Version),
		httpAdapter.WithLogger(a.logger),
	)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := httpAdapter.Serve(ctx, a.cfg.Status.Addr, h, a.logger, ready); err != nil {
			a.logger.Error("status server failed", "err", err)
			printSystemMessage(a.out, "Status server failed: %v", err)
		}
	}()
}

// start begins the session, processing the configured seed first.
func (a *app) start(ctx context.Context) error {
	if a.cfg.Seed == "" {
		return a.sess.Start(ctx)
	}
	return a.sess.Start(ctx, domain.Raw(a.cfg.Seed))
}

// wait blocks until the session ends on its own or ctx is done.
func (a *app) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-a.sess.Done():
	}
}

func (a *app) close() error {
	err := a.sess.Close()
	a.wg.Wait()
	return err
}

// RunSession runs one interactive echo session until the input ends or a
// signal arrives.
func RunSession(cfg config.Config, opts RunOptions) error {
	logger := createLogger(cfg.Debug, opts.LogJSON)
	in, out := opts.streams()

	src, err := openSource(cfg, in, out, logger)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}

	a, err := newApp(cfg, src, out, logger)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("error initializing session: %w", err)
	}
	logger.Info("Session Created", "session_id", a.sess.ID(), "parser", cfg.Parser)

	_, interactive := src.(*source.Terminal)
	if interactive {
		tui.PrintBanner(a.out)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	a.serve(sigCtx, func(addr net.Addr) {
		printSystemMessage(a.out, "Status on http://%s", addr)
	})

	if err := a.start(sigCtx); err != nil {
		sigCtx.Cancel()
		_ = a.close()
		return err
	}
	a.wait(sigCtx)

	sig := sigCtx.Signal()
	sigCtx.Cancel()
	closeErr := a.close()
	logCompletion(a.out, sig, !interactive)
	return closeErr
}
