package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/caasmo/fraudgate/config"
)

type fakeDaemon struct {
	name             string
	startShouldError error
	stopShouldError  error
	startCalledChan  chan bool
	stopCalledChan   chan bool
	startDelay       time.Duration
}

func newFakeDaemon(name string) *fakeDaemon {
	return &fakeDaemon{
		name:            name,
		startCalledChan: make(chan bool, 1),
		stopCalledChan:  make(chan bool, 1),
	}
}

func (fd *fakeDaemon) Name() string { return fd.name }

func (fd *fakeDaemon) Start() error {
	if fd.startDelay > 0 {
		time.Sleep(fd.startDelay)
	}
	fd.startCalledChan <- true
	return fd.startShouldError
}

func (fd *fakeDaemon) Stop(ctx context.Context) error {
	fd.stopCalledChan <- true
	return fd.stopShouldError
}

func newTestServer(t *testing.T, reload ReloadFunc) (*Server, *config.Provider) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownGracefulTimeout.Duration = 200 * time.Millisecond
	provider := config.NewProvider(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	if reload == nil {
		reload = func() (*config.Config, error) { return cfg, nil }
	}
	return NewServer(provider, handler, logger, reload), provider
}

func TestServerRunFullLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	d := newFakeDaemon("test-daemon")
	srv.AddDaemon(d)

	exitCalled := make(chan int, 1)
	srv.exitFunc = func(code int) { exitCalled <- code }

	go srv.Run()

	select {
	case <-d.startCalledChan:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for daemon to start")
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send SIGINT: %v", err)
	}

	select {
	case <-d.stopCalledChan:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for daemon to stop")
	}

	select {
	case code := <-exitCalled:
		if code != 0 {
			t.Errorf("exit code = %d, want 0", code)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server exit")
	}
}

func TestServerRunDaemonStartFailure(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	d1 := newFakeDaemon("daemon-ok")
	d2 := newFakeDaemon("daemon-fail")
	d2.startShouldError = errors.New("startup failed")
	srv.AddDaemon(d1)
	srv.AddDaemon(d2)

	exitCalled := make(chan int, 1)
	srv.exitFunc = func(code int) { exitCalled <- code }

	go srv.Run()

	select {
	case <-d1.startCalledChan:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for daemon1 to start")
	}
	select {
	case <-d2.startCalledChan:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for daemon2 start attempt")
	}
	select {
	case <-d1.stopCalledChan:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for daemon1 cleanup stop")
	}

	select {
	case code := <-exitCalled:
		if code == 0 {
			t.Error("exit code = 0, want non-zero after startup failure")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server exit after daemon failure")
	}
}

func TestServerRunHandlesSIGHUP(t *testing.T) {
	reloadCalled := make(chan bool, 1)
	reload := func() (*config.Config, error) {
		reloadCalled <- true
		return config.NewDefaultConfig(), nil
	}
	srv, _ := newTestServer(t, reload)

	exitCalled := make(chan int, 1)
	srv.exitFunc = func(code int) { exitCalled <- code }

	go srv.Run()
	time.Sleep(20 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("send SIGHUP: %v", err)
	}

	select {
	case <-reloadCalled:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reload to be called")
	}

	select {
	case code := <-exitCalled:
		t.Fatalf("server exited with code %d after SIGHUP, want still running", code)
	default:
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send SIGINT for cleanup: %v", err)
	}
	select {
	case <-exitCalled:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server exit during cleanup")
	}
}

func TestServerRunSIGHUPReloadFailureKeepsOldConfig(t *testing.T) {
	reload := func() (*config.Config, error) {
		return nil, errors.New("reload failed")
	}
	srv, provider := newTestServer(t, reload)
	original := provider.Get()

	exitCalled := make(chan int, 1)
	srv.exitFunc = func(code int) { exitCalled <- code }

	go srv.Run()
	time.Sleep(20 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("send SIGHUP: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if provider.Get() != original {
		t.Error("config was replaced despite a failed reload")
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send SIGINT for cleanup: %v", err)
	}
	select {
	case <-exitCalled:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server exit during cleanup")
	}
}

func TestServerRunHTTPServerFailure(t *testing.T) {
	// Bind the port first so the server's own ListenAndServe fails.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	srv, provider := newTestServer(t, nil)
	cfg := provider.Get()
	cfg.Server.Addr = ln.Addr().String()
	provider.Update(cfg)

	exitCalled := make(chan int, 1)
	srv.exitFunc = func(code int) { exitCalled <- code }

	go srv.Run()

	select {
	case code := <-exitCalled:
		if code == 0 {
			t.Error("exit code = 0, want non-zero after listen failure")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server exit after listen failure")
	}
}

func TestAddDaemonNil(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	srv.AddDaemon(nil)
	if len(srv.daemons) != 0 {
		t.Error("daemon list should stay empty after adding nil")
	}
}
