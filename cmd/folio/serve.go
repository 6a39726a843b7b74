package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/folio"
	"github.com/eringen/folio/contact"
)

const shutdownTimeout = 15 * time.Second

var (
	serveAddr     string
	serveWatch    bool
	flushInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site, the blog API and the contact form",
	Long: `serve loads the posts, opens the pending submission store and starts the
HTTP server. It stops gracefully on SIGINT or SIGTERM, letting in-flight form
submissions finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload posts when the content changes")
	serveCmd.Flags().DurationVar(&flushInterval, "flush-interval", 0, "retry pending submissions this often (0 disables)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := siteCfg
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveWatch {
		cfg.WatchContent = true
	}

	app := folio.New(cfg, folio.ViewFuncs{}, folio.WithLogger(logger))
	if err := app.Init(); err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flushInterval > 0 && app.Pending != nil {
		go flushLoop(ctx, app, flushInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errCh
}

// flushLoop periodically replays stored submissions through the network
// senders.
func flushLoop(ctx context.Context, app *folio.App, every time.Duration) {
	chain := networkChain(app.Config)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n, err := app.Pending.Flush(ctx, chain)
		if err != nil {
			logger.Warn().Err(err).Int("delivered", n).Msg("pending flush incomplete")
			continue
		}
		if n > 0 {
			logger.Info().Int("delivered", n).Msg("pending submissions delivered")
		}
	}
}

// networkChain is the default chain without the pending store, so a flush
// never writes back into the table it is draining.
func networkChain(cfg folio.SiteConfig) *contact.Chain {
	endpoint := cfg.WebhookURL
	client := &http.Client{Timeout: cfg.WebhookTimeout}
	return contact.NewChain(logger,
		&contact.WebhookSender{Endpoint: endpoint, Origin: cfg.URL, Client: client},
		&contact.FormPostSender{Endpoint: endpoint, Client: client},
	)
}
