package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	readTimeout     = 60 * time.Second
	writeTimeout    = readTimeout
	shutdownTimeout = 30 * time.Second

	// inheritEnv marks a child started by a SIGUSR2 restart; it takes over the listener on fd 3.
	inheritEnv  = "YATUBE_GRACEFUL"
	inheritFlag = inheritEnv + "=1"
	inheritFD   = 3
)

// Server is an http.Server that drains on SIGTERM/SIGINT and restarts without dropping
// connections on SIGUSR2 by handing its listener to a freshly started copy of the binary.
type Server struct {
	*http.Server

	// OnShutdown runs after the HTTP server drained, before ListenAndServe returns.
	OnShutdown func()

	inherited bool
	listener  net.Listener
	signals   chan os.Signal
	done      chan struct{}
}

// NewServer creates a Server for handler on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		inherited: os.Getenv(inheritEnv) != "",
		signals:   make(chan os.Signal, 1),
		done:      make(chan struct{}),
	}
}

// ListenAndServe serves until a signal shut the server down and it finished draining.
func (s *Server) ListenAndServe() error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	s.listener = ln

	signal.Notify(s.signals, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR2)
	go s.watchSignals()

	Sugar.Infow("listening", "addr", ln.Addr().String(), "inherited", s.inherited, "pid", os.Getpid())
	if err := s.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-s.done
	return nil
}

func (s *Server) listen() (net.Listener, error) {
	if s.inherited {
		ln, err := net.FileListener(os.NewFile(inheritFD, "listener"))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	addr := s.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (s *Server) watchSignals() {
	for sig := range s.signals {
		if sig == syscall.SIGUSR2 {
			pid, err := s.fork()
			if err != nil {
				Sugar.Errorw("restart failed, still serving", "err", err)
				continue
			}
			Sugar.Infow("restarted, draining old process", "child", pid)
		} else {
			Sugar.Infow("shutting down", "signal", sig.String())
		}
		s.drain()
		return
	}
}

func (s *Server) drain() {
	signal.Stop(s.signals)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		Sugar.Errorw("shutdown incomplete", "err", err)
	}
	if s.OnShutdown != nil {
		s.OnShutdown()
	}
	close(s.done)
}

// fork re-executes the binary with the listening socket as fd 3.
func (s *Server) fork() (int, error) {
	tcp, ok := s.listener.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not a TCP listener")
	}
	f, err := tcp.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer f.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if kv != inheritFlag {
			env = append(env, kv)
		}
	}
	env = append(env, inheritFlag)

	return syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), f.Fd()},
	})
}
