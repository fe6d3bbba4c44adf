package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestHandleSignalHUPReExecsBinary(t *testing.T) {
	dataDir := t.TempDir()
	pidPath, err := writePIDFile(dataDir)
	if err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}

	orig := execFn
	defer func() { execFn = orig }()

	var execPath string
	var pidGoneAtExec bool
	execFn = func(argv0 string, argv []string, envv []string) error {
		execPath = argv0
		_, statErr := os.Stat(pidPath)
		pidGoneAtExec = os.IsNotExist(statErr)
		return nil
	}

	done, err := handleSignal(syscall.SIGHUP, &http.Server{}, pidPath, dataDir)
	if err != nil {
		t.Fatalf("handleSignal: %v", err)
	}
	if done {
		t.Error("SIGHUP should not stop the serve loop")
	}
	if execPath == "" {
		t.Error("SIGHUP did not attempt to re-exec")
	}
	if !pidGoneAtExec {
		t.Error("PID file should be removed before re-exec")
	}
}

func TestHandleSignalHUPExecFailureRestoresPIDFile(t *testing.T) {
	dataDir := t.TempDir()
	pidPath, err := writePIDFile(dataDir)
	if err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}

	orig := execFn
	defer func() { execFn = orig }()
	execFn = func(argv0 string, argv []string, envv []string) error {
		return errors.New("exec format error")
	}

	done, err := handleSignal(syscall.SIGHUP, &http.Server{}, pidPath, dataDir)
	if err != nil {
		t.Fatalf("handleSignal: %v", err)
	}
	if done {
		t.Error("failed re-exec should keep the server running")
	}
	if _, statErr := os.Stat(pidPath); statErr != nil {
		t.Errorf("PID file not restored after failed re-exec: %v", statErr)
	}
}

func TestHandleSignalTermShutsDown(t *testing.T) {
	dataDir := t.TempDir()
	pidPath := filepath.Join(dataDir, "devsocial.pid")

	done, err := handleSignal(syscall.SIGTERM, &http.Server{}, pidPath, dataDir)
	if err != nil {
		t.Fatalf("handleSignal: %v", err)
	}
	if !done {
		t.Error("SIGTERM should stop the serve loop")
	}
}
