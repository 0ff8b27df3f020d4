package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/patientor/internal/config"
	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/platform/apiclient"
	"github.com/ehr/patientor/internal/web"
)

const bootstrapTimeout = 15 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "patientor",
		Short: "Patient records viewer",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(pingCmd())
	rootCmd.AddCommand(diagnosesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the patientor web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the remote patients API is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			client := newClient(cfg, logger)

			if err := client.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping %s: %w", cfg.APIBaseURL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is up\n", cfg.APIBaseURL)
			return nil
		},
	}
}

func diagnosesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnoses [code...]",
		Short: "Print the diagnosis directory, or look up the given codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			svc := diagnosis.NewService(diagnosis.NewRepo(newClient(cfg, logger)))

			dir, err := svc.LoadDirectory(cmd.Context())
			if err != nil {
				return fmt.Errorf("load diagnoses: %w", err)
			}
			return printDiagnoses(cmd.OutOrStdout(), dir, args)
		},
	}
	return cmd
}

// printDiagnoses writes one "code name" row per code; with no codes it lists
// the whole directory.
func printDiagnoses(w io.Writer, dir *diagnosis.Directory, codes []string) error {
	if len(codes) == 0 {
		codes = dir.Codes()
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, code := range codes {
		fmt.Fprintf(tw, "%s\t%s\n", code, dir.Name(code))
	}
	return tw.Flush()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.ZerologLevel())
}

func newClient(cfg *config.Config, logger zerolog.Logger) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		RetryCount: cfg.APIRetryCount,
	}, logger)
}

func runServer() error {
	// Config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logger
	logger := newLogger(cfg, os.Stdout)

	srv, err := web.NewServer(cfg, newClient(cfg, logger), logger, web.Options{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	bootCtx, cancelBoot := context.WithTimeout(ctx, bootstrapTimeout)
	if err := srv.Shell.Bootstrap(bootCtx); err != nil {
		logger.Warn().Err(err).Msg("starting with incomplete data")
	}
	cancelBoot()

	srv.Sessions.StartCleanup(ctx)
	defer srv.Sessions.Close()

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Str("api", cfg.APIBaseURL).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = srv.Echo.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.Echo.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Echo.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
