package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"environovalab/cmd"
	"environovalab/config"
	"environovalab/jarstore"
	"environovalab/log"
	"environovalab/routes"
	"environovalab/util"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use: "environovalab",
		Run: func(_ *cobra.Command, _ []string) {
			runServer()
		},
	}
	rootCmd.AddCommand(cmd.Api)
	rootCmd.AddCommand(cmd.Jars)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := jarstore.NewStore(ctx, config.Cfg.JarStore)
	if err != nil {
		panic(err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		panic(err)
	}

	go func() {
		logger := &log.TaskLogger{Component: "jar_cleanup"}
		if err := jarstore.RunCleanup(ctx, store, 6*time.Hour, jarstore.DefaultMaxAge, logger); err != nil {
			logger.Error().Err(err).Msg("Jar cleanup stopped")
		}
	}()

	if config.Cfg.IsHeroku {
		go util.ReportHerokuMetrics(ctx, &log.TaskLogger{Component: "hmetrics"})
	}

	server := &http.Server{ //nolint:exhaustruct
		Addr:              fmt.Sprintf(":%d", config.Cfg.Port),
		Handler:           routes.NewRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().
		Int("port", config.Cfg.Port).
		Str("api", config.Cfg.ApiBaseUrl).
		Str("jar_store", config.Cfg.JarStore.String()).
		Msg("Started")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
	log.Info().Msg("Stopped")
}
