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
	"golang.org/x/sync/errgroup"

	"github.com/yegors/procroute/internal/api"
	"github.com/yegors/procroute/internal/refdata"
	"github.com/yegors/procroute/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Load the reference tables and serve the resolver over HTTP.

With reference.watch enabled and a csv source, edited reference files are
reloaded automatically.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.load(ctx)

	handler := api.NewHandler(a.store, a.loader, a.routes, a.log)
	router := api.NewRouter(handler, a.cfg.Server, a.log)
	server := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      router.Routes(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("Shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	})

	if a.cfg.Reference.Watch {
		csvSource, ok := a.source.(*refdata.CSVSource)
		if !ok {
			a.log.Warn("Reference watch needs a csv source, ignoring",
				logger.String("source", a.source.Name()),
			)
		} else {
			watcher, err := refdata.NewWatcher(a.loader, csvSource.Files(), a.cfg.Reference.Debounce, a.log)
			if err != nil {
				return err
			}
			g.Go(func() error {
				return watcher.Run(gctx)
			})
		}
	}

	return g.Wait()
}
