// Command akazad is the optional long-running HTTP daemon form of the
// conversion engine: POST /convert and POST /commit, for an IME front-end
// that wants a warm engine (models already loaded, user-learning state
// already in memory) behind a local socket instead of re-exec-ing the CLI
// per keystroke.
//
// Grounded on
// _examples/SeamusWaldron-ehdc-llpg-address-matching/internal/web/server.go:
// the Server struct (router + http.Server + graceful shutdown on
// SIGINT/SIGTERM) is carried over directly, retargeted from a
// database-backed REST API to a single in-memory Engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"akaza/engine"
	"akaza/model"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("akazad", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:8228", "listen address")
	modelDir := fs.String("model-dir", "", "path to the model directory (required)")
	userData := fs.String("user-data", "", "path to the user data directory (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *modelDir == "" {
		fmt.Fprintln(os.Stderr, "akazad: --model-dir is required")
		return 2
	}

	e, err := engine.Load(engine.Config{
		ModelDir:    *modelDir,
		UserDataDir: *userData,
		UseMmap:     true,
		Weights:     model.DefaultReRankingWeights(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "akazad: load engine:", err)
		return 1
	}
	defer e.Close()

	srv := NewServer(*addr, e)
	if err := srv.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "akazad:", err)
		return 1
	}
	return 0
}

// Server wraps the Engine behind an HTTP API.
type Server struct {
	engine     *engine.Engine
	httpServer *http.Server
}

// NewServer builds a Server listening on addr.
func NewServer(addr string, e *engine.Engine) *Server {
	s := &Server{engine: e}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/convert", s.handleConvert).Methods("POST")
	r.HandleFunc("/commit", s.handleCommit).Methods("POST")
	return r
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts it down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
