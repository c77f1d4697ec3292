package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-collator/internal/export"
	"github.com/joseph-ayodele/invoice-collator/internal/repository"
	"github.com/joseph-ayodele/invoice-collator/internal/selector"
	"github.com/joseph-ayodele/invoice-collator/internal/server"
	"github.com/joseph-ayodele/invoice-collator/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser upload UI",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.OpenInMemory(ctx, logger)
	if err != nil {
		return err
	}
	defer repository.Close(db, logger)
	journal := repository.NewRunJournal(db, logger)

	sessions := session.NewManager(session.Deps{
		Selector: selector.New(logger),
		Pipeline: newPipeline(),
		Exporter: export.NewService(logger),
		Journal:  journal,
		Logger:   logger,
	})
	srv, err := server.New(cfg.Server, sessions, journal, db, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.RunCleanup(gctx, time.Minute, cfg.Server.SessionTTL)
		return nil
	})

	health := server.NewHealthServer(logger)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return err
		}
		g.Go(func() error { return health.Serve(gctx, lis) })
	}

	g.Go(func() error { return srv.Start(cfg.Server.HTTPAddr) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		health.SetServing(false)
		// runs in flight are allowed to finish within the extraction timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Extraction.Timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
