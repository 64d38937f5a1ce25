package conformance_test

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const authToken = "test-token"

var serverURL string

// server is a repoquery binary under test.
type server struct {
	bin string
	env []string
	cmd *exec.Cmd
}

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	dir, err := os.MkdirTemp("", "repoquery-conformance-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create tmpdir: %v\n", err)
		return 1
	}
	defer func() { _ = os.RemoveAll(dir) }()

	srv, err := newServer(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	// Migrate the file database up front; serve must accept it as is.
	if err := srv.exec("migrate", "--no-seed"); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return 1
	}
	if err := srv.start(); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		return 1
	}
	defer srv.stop()

	return m.Run()
}

// newServer builds the binary into dir and prepares its environment.
func newServer(dir string) (*server, error) {
	bin := filepath.Join(dir, "repoquery")
	build := exec.Command("go", "build", "-o", bin, "./cmd/repoquery")
	build.Dir = moduleRoot()
	build.Stdout, build.Stderr = os.Stdout, os.Stderr
	if err := build.Run(); err != nil {
		return nil, fmt.Errorf("build binary: %w", err)
	}

	port, err := listenPort()
	if err != nil {
		return nil, fmt.Errorf("find free port: %w", err)
	}
	serverURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	return &server{
		bin: bin,
		env: append(os.Environ(),
			fmt.Sprintf("REPOQUERY_ADDR=127.0.0.1:%d", port),
			"REPOQUERY_DB="+filepath.Join(dir, "repoquery.db"),
			"REPOQUERY_AUTH_TOKEN="+authToken,
			"REPOQUERY_CONFIG=",
			"REPOQUERY_RATE_LIMIT=0",
			"REPOQUERY_LOG_LEVEL=warn",
		),
	}, nil
}

// exec runs a one-shot subcommand to completion.
func (s *server) exec(args ...string) error {
	cmd := exec.Command(s.bin, args...)
	cmd.Env = s.env
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	return cmd.Run()
}

// start launches serve and blocks until /metrics answers 200.
func (s *server) start() error {
	s.cmd = exec.Command(s.bin, "serve")
	s.cmd.Env = s.env
	s.cmd.Stdout, s.cmd.Stderr = os.Stdout, os.Stderr
	if err := s.cmd.Start(); err != nil {
		return err
	}

	client := &http.Client{Timeout: 500 * time.Millisecond}
	for deadline := time.Now().Add(10 * time.Second); time.Now().Before(deadline); time.Sleep(50 * time.Millisecond) {
		resp, err := client.Get(serverURL + "/metrics")
		if err != nil {
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
	}
	s.stop()
	return errors.New("server did not become ready at " + serverURL)
}

func (s *server) stop() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	_ = s.cmd.Process.Signal(os.Interrupt)
	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = s.cmd.Process.Kill()
		<-done
	}
	s.cmd = nil
}

func listenPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// moduleRoot is the nearest parent directory holding go.mod.
func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir != filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return "."
}
