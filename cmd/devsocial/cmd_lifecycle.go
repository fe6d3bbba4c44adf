package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd, stopCmd, restartCmd)
}

func pidFilePath() string {
	cfg := loadConfig()
	return filepath.Join(cfg.DataDir, "devsocial.pid")
}

// readPIDFile parses a PID file and confirms the process is alive by
// sending signal 0. A stale file (dead process or garbage content) is
// reported the same as a missing one so callers get a single "not
// running" story.
func readPIDFile(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("server is not running (no PID file at %s)", pidPath)
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("server is not running (PID file %s is corrupt)", pidPath)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, fmt.Errorf("server is not running (stale PID %d in %s)", pid, pidPath)
	}

	return pid, nil
}

// signalServer delivers sig to the process recorded in the PID file.
func signalServer(sig syscall.Signal) (int, error) {
	pid, err := readPIDFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(sig); err != nil {
		return 0, fmt.Errorf("signal process %d: %w", pid, err)
	}
	return pid, nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the server is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := readPIDFile(pidFilePath())
		if err != nil {
			fmt.Fprintln(os.Stdout, err)
			return nil
		}
		cfg := loadConfig()
		fmt.Fprintf(os.Stdout, "server is running (PID %d, listening on %s)\n", pid, cfg.HTTPListen)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := signalServer(syscall.SIGTERM)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "stopping server (PID %d)\n", pid)
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the running server in place",
	Long: `Restart signals the running server with SIGHUP. The server removes its
PID file and re-execs its own binary, so the replacement process keeps
the same PID and picks up any configuration changes from the environment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := signalServer(syscall.SIGHUP)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "restarting server (PID %d)\n", pid)
		return nil
	},
}
