package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/bomb-arena/internal/config"
	"github.com/tomz197/bomb-arena/internal/console"
	"github.com/tomz197/bomb-arena/internal/draw"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/server"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
)

// connector opens the connection of an SSH session to the game server.
type connector func(ctx context.Context, remote net.Addr) (transport.Conn, error)

func main() {
	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	serverURL := config.GetEnv("BIM_SERVER_URL", "")
	log.Info("SSH config.", "host", host, "port", port, "hostKeyPath", hostKeyPath, "server", serverURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		connect connector
		stop    func()
	)
	if serverURL == "" {
		connect, stop = startLocalServer(ctx)
	} else {
		connect = func(ctx context.Context, _ net.Addr) (transport.Conn, error) {
			return transport.DialWebsocket(ctx, serverURL)
		}
		stop = func() {}
	}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			gameMiddleware(connect),
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		log.Fatal("Could not create the SSH server.", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Starting SSH server.", "host", host, "port", port)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatal("Server error.", "err", err)
		}
	}()

	<-done
	log.Info("Shutting down server...")

	stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Shutdown error.", "err", err)
	}
}

// startLocalServer runs a game server in the process. Each SSH session
// talks to it through an in-memory pipe.
func startLocalServer(ctx context.Context) (connector, func()) {
	loop := schedule.NewLoop(1024)
	hub := transport.NewHub(1024)

	srv, err := server.New(server.ConfigFromEnv(), loop, hub)
	if err != nil {
		log.Fatal("Could not create the game server.", "err", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	finished := make(chan struct{})
	go func() {
		srv.Run(ctx, hub, loop)
		close(finished)
	}()
	log.Info("Game server started.")

	connect := func(_ context.Context, remote net.Addr) (transport.Conn, error) {
		client, serverEnd := transport.NewRemotePipe(remote.String())
		hub.Attach(serverEnd)
		return client, nil
	}

	stop := func() {
		log.Info("Disconnecting the players...")
		hub.Close()
		cancel()
		<-finished

		if err := srv.Close(); err != nil {
			log.Error("Could not close the game server.", "err", err)
		}
		log.Info("Game server stopped.")
	}

	return connect, stop
}

// gameMiddleware handles SSH sessions and runs the console client.
func gameMiddleware(connect connector) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}

			log.Info("New game session.", "user", sess.User(), "terminal", pty.Term,
				"width", pty.Window.Width, "height", pty.Window.Height)

			sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
			go func() {
				for win := range winCh {
					sizeTracker.update(win.Width, win.Height)
				}
			}()

			conn, err := connect(sess.Context(), sess.RemoteAddr())
			if err != nil {
				log.Error("Could not reach the game server.", "user", sess.User(), "err", err)
				fmt.Fprintln(sess, "The game server is not reachable. Please try again later.")
				return
			}

			c := console.NewClient(conn, bufio.NewReader(sess), sess, console.Options{
				TermSizeFunc: sizeTracker.getSize,
				GameName:     sess.User(),
			})
			if err := c.Run(sess.Context()); err != nil {
				log.Error("Game error.", "user", sess.User(), "err", err)
			}

			log.Info("Session ended.", "user", sess.User())
			next(sess)
		}
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
