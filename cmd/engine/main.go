// Package main is the entry point for the settlement engine process. It
// wires together the record store, the event sink and the instruction
// dispatcher, and runs until stdin is exhausted or an interrupt or terminate
// signal arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evetabi/settlement/internal/config"
	"github.com/evetabi/settlement/internal/engine"
	"github.com/evetabi/settlement/internal/store"
	"go.uber.org/zap"
)

func main() {
	// ── 1. Config + logger ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logger *zap.Logger
	var err error
	if cfg.IsProd() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting settlement engine", zap.String("env", cfg.Env), zap.String("store_path", cfg.StorePath))

	// ── 2. Record store ───────────────────────────────────────────────────────
	s, err := store.Open(cfg.StorePath)
	if err != nil {
		logger.Error("store open failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("store opened", zap.String("path", cfg.StorePath))

	// ── 3. Dispatcher ──────────────────────────────────────────────────────────
	eng := engine.New(s, logger)

	// ── 4. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 5. Instruction stream ─────────────────────────────────────────────────
	// Requests arrive as length-prefixed internal/wire.Request frames on
	// stdin; dispatchLoop decodes each one and runs it against eng. A
	// malformed or rejected instruction is logged and the stream continues —
	// only EOF or a framing error ends the loop.
	dispatchDone := make(chan error, 1)
	go func() { dispatchDone <- dispatchLoop(os.Stdin, eng, logger) }()

	select {
	case err := <-dispatchDone:
		if err != nil {
			logger.Error("dispatch loop ended with error", zap.Error(err))
		} else {
			logger.Info("dispatch loop reached end of input")
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// ── 6. Graceful shutdown ──────────────────────────────────────────────────
	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()

	select {
	case err := <-closed:
		if err != nil {
			logger.Error("store close error", zap.Error(err))
		}
	case <-time.After(cfg.ShutdownTimeout):
		logger.Error("store close timed out", zap.Duration("timeout", cfg.ShutdownTimeout))
	}
	logger.Info("settlement engine stopped cleanly")
}
