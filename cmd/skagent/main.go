// Command skagent is the native-messaging host process (spec.md §6
// "Process surface"): it establishes the PC/SC context, builds the
// device registry and dispatcher, and runs the framed request/response
// loop over stdin/stdout until EOF or a fatal framing error.
//
// Grounded on ro/main.go's process shape (establish PC/SC context, set
// up signal handling, run a loop until interrupted), adapted from an
// interactive card-scan loop into a synchronous one-request-at-a-time
// RPC loop (spec.md §5).
package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fthsdk/skagent/internal/agentlog"
	"github.com/fthsdk/skagent/internal/apdu"
	"github.com/fthsdk/skagent/internal/framing"
	"github.com/fthsdk/skagent/internal/registry"
	"github.com/fthsdk/skagent/internal/rpc"
)

// version is the agent's own version string, reported by getVersion.
const version = "1.0.0"

// Exit codes (spec.md §6).
const (
	exitOK             = 0
	exitFramingFatal   = 1
	exitStartupFailure = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	agentlog.Init()

	pcsc, err := apdu.EstablishContext()
	if err != nil {
		slog.Error("failed to establish PC/SC context", "error", err)
		return exitStartupFailure
	}

	reg := registry.New(pcsc)
	dispatcher := rpc.New(reg, version)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig.String())
			if err := reg.Shutdown(); err != nil {
				slog.Warn("shutdown cleanup reported an error", "error", err)
			}
			os.Exit(exitOK)
		case <-done:
		}
	}()
	defer close(done)

	slog.Info("skagent starting", "version", version)

	code := serve(dispatcher, os.Stdin, os.Stdout)

	if err := reg.Shutdown(); err != nil {
		slog.Warn("shutdown cleanup reported an error", "error", err)
	}
	return code
}

// serve runs the request/response loop: read one framed request, decode
// it, dispatch it, write the framed response, repeat. A clean EOF on
// stdin or SIGPIPE/SIGTERM-triggered exit is the only normal way to stop;
// any other framing error is fatal (spec.md §6 exit code 1).
func serve(dispatcher *rpc.Dispatcher, r io.Reader, w io.Writer) int {
	for {
		var req rpc.Request
		err := framing.ReadFrame(r, &req)
		if errors.Is(err, io.EOF) {
			slog.Info("stdin closed, shutting down")
			return exitOK
		}
		if err != nil {
			slog.Error("fatal framing error", "error", err)
			return exitFramingFatal
		}

		resp := dispatcher.Dispatch(req)

		if err := framing.WriteFrame(w, resp); err != nil {
			slog.Error("fatal framing error writing response", "error", err)
			return exitFramingFatal
		}
	}
}
