package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/tomz197/bomb-arena/internal/config"
	"github.com/tomz197/bomb-arena/internal/console"
	"github.com/tomz197/bomb-arena/internal/net/transport"
)

const defaultServerURL = "ws://localhost:23899/ws"

func main() {
	serverURL := config.GetEnv("BIM_SERVER_URL", defaultServerURL)

	stderr, err := redirectLog(config.GetEnv("BIM_LOG_FILE", os.DevNull))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to redirect the log: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, err := transport.DialWebsocket(dialCtx, serverURL)
	cancel()
	if err != nil {
		fmt.Fprintf(stderr, "failed to reach %s: %v\n", serverURL, err)
		os.Exit(1)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	c := console.NewClient(conn, bufio.NewReader(os.Stdin), os.Stdout, console.Options{
		GameName: config.GetEnv("BIM_GAME_NAME", ""),
	})
	if err := c.Run(ctx); err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

// redirectLog sends the standard error, where the loggers write, to the file
// at path so that the log does not garble the screen. It returns the
// original standard error.
func redirectLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	orig, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		return nil, err
	}
	if err := unix.Dup2(int(f.Fd()), int(os.Stderr.Fd())); err != nil {
		unix.Close(orig)
		return nil, err
	}

	return os.NewFile(uintptr(orig), "stderr"), nil
}
