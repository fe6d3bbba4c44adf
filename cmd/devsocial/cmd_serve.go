package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/devsocial/internal/dispatch"
	"github.com/user/devsocial/internal/httpserver"
	"github.com/user/devsocial/internal/identity"
	"github.com/user/devsocial/internal/mcpserver"
	"github.com/user/devsocial/internal/social"
	"github.com/user/devsocial/internal/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the devsocial server",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "devsocial.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	st, err := store.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StoreTimeout)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	resolver := identity.NewResolver(st, identity.NewMemorySessionStore(), cfg.AuthMode)
	svc := social.NewService(st)
	dispatcher := dispatch.NewDispatcher(dispatch.NewCatalog(resolver, svc), resolver, slog.Default())
	rpc := mcpserver.NewServer(dispatcher, mcpserver.NewSessionRegistry(), slog.Default())
	handler := httpserver.NewServer(resolver, dispatcher, rpc, cfg.SetupDir, slog.Default())

	srv := &http.Server{
		Addr:    cfg.HTTPListen,
		Handler: handler,
	}

	slog.Info("devsocial started",
		"listen", cfg.HTTPListen,
		"auth_mode", cfg.AuthMode,
		"log_level", cfg.LogLevel,
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case sig := <-sigChan:
				done, err := handleSignal(sig, srv, pidPath, cfg.DataDir)
				if done {
					return err
				}
			}
		}
	})

	return g.Wait()
}

// execFn is swapped in tests; a successful exec never returns.
var execFn = syscall.Exec

// handleSignal processes one lifecycle signal. SIGHUP re-execs the binary in
// place: the PID file is removed first so a replacement process can write its
// own, and re-written if the exec fails so stop/restart keep working. Any
// other signal drains the server and reports that serve should return.
func handleSignal(sig os.Signal, srv *http.Server, pidPath, dataDir string) (bool, error) {
	if sig == syscall.SIGHUP {
		slog.Info("received SIGHUP, restarting")
		execPath, err := os.Executable()
		if err != nil {
			slog.Error("failed to get executable path", "error", err)
			return false, nil
		}
		os.Remove(pidPath)
		if err := execFn(execPath, os.Args, os.Environ()); err != nil {
			slog.Error("failed to re-exec", "error", err)
			if _, writeErr := writePIDFile(dataDir); writeErr != nil {
				slog.Error("failed to re-write PID file", "error", writeErr)
			}
		}
		return false, nil
	}

	slog.Info("shutting down", "signal", sig)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return true, srv.Shutdown(shutdownCtx)
}
