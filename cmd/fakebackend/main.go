// Command fakebackend serves a seeded in-memory school backend for local runs of the console.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/yigit/schoolconsole/internal/pkg/fakebackend"
	"github.com/yigit/schoolconsole/internal/pkg/logger"
)

var (
	addr     string
	embed    bool
	noSeed   bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "fakebackend",
	Short: "Serve an in-memory school backend",
	Long: `Serve the departments, subjects, classes, users and analytics endpoints
the console expects, backed by memory. Data is lost on exit.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	rootCmd.Flags().BoolVar(&embed, "embed", false, "Embed subject/teacher/department summaries in responses")
	rootCmd.Flags().BoolVar(&noSeed, "no-seed", false, "Start empty instead of with the demo school")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
}

func run(cmd *cobra.Command, _ []string) error {
	logger.Configure(logger.Config{Level: logger.ParseLevel(logLevel), Pretty: true})
	lgr := logger.ForComponent("fakebackend")
	gin.SetMode(gin.ReleaseMode)

	backend := fakebackend.New(fakebackend.Options{EmbedRelations: embed})
	if !noSeed {
		seeded := fakebackend.Seed(backend)
		lgr.Info().
			Int("departments", len(seeded.Departments)).
			Int("subjects", len(seeded.Subjects)).
			Int("classes", len(seeded.Classes)).
			Msg("Seeded demo school")
	}

	srv := &http.Server{Addr: addr, Handler: backend.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errs := make(chan error, 1)
	go func() {
		lgr.Info().Str("addr", addr).Bool("embed", embed).Msg("Fake backend listening")
		errs <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
