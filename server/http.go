package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/saiset-co/sai-authchain/types"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

const defaultShutdownTimeout = 5 * time.Second

type FastHTTPServer struct {
	logger          types.Logger
	handler         types.FastHTTPHandler
	httpConfig      *types.HTTPConfig
	server          *fasthttp.Server
	state           atomic.Int32
	shutdownTimeout time.Duration
}

func NewHTTPServer(config *types.HTTPConfig, logger types.Logger, handler types.FastHTTPHandler) (*FastHTTPServer, error) {
	if config == nil {
		return nil, types.Errorf(types.ErrConfigNotFound, "server.http section")
	}
	if handler == nil {
		return nil, types.ErrHandlerIsNil
	}

	shutdownTimeout := time.Duration(config.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	return &FastHTTPServer{
		logger:          logger,
		handler:         handler,
		httpConfig:      config,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

func (h *FastHTTPServer) Address() string {
	return fmt.Sprintf("%s:%d", h.httpConfig.Host, h.httpConfig.Port)
}

// Start listens on the configured address. Listen errors are returned to the
// caller; serve errors after that are logged.
func (h *FastHTTPServer) Start() error {
	if h.getState() != StateStopped {
		return types.ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", h.Address())
	if err != nil {
		return types.WrapError(err, "failed to listen")
	}

	if err := h.Serve(listener); err != nil {
		_ = listener.Close()
		return err
	}
	return nil
}

// Serve runs the server on an existing listener in the background.
func (h *FastHTTPServer) Serve(listener net.Listener) error {
	if !h.transitionState(StateStopped, StateStarting) {
		return types.ErrServerAlreadyRunning
	}

	h.server = &fasthttp.Server{
		Handler:                      h.handler,
		Name:                         "sai-authchain",
		ReadTimeout:                  time.Duration(h.httpConfig.ReadTimeout) * time.Second,
		WriteTimeout:                 time.Duration(h.httpConfig.WriteTimeout) * time.Second,
		IdleTimeout:                  time.Duration(h.httpConfig.IdleTimeout) * time.Second,
		TCPKeepalive:                 true,
		DisablePreParseMultipartForm: true,
		CloseOnShutdown:              true,
	}

	server := h.server
	go func() {
		if err := server.Serve(listener); err != nil {
			h.logger.Error("HTTP server failed", zap.Error(err))
			h.setState(StateStopped)
		}
	}()

	h.setState(StateRunning)
	h.logger.Info("HTTP server started successfully", zap.String("address", listener.Addr().String()))

	return nil
}

func (h *FastHTTPServer) Stop() error {
	if !h.transitionState(StateRunning, StateStopping) {
		return types.ErrServerNotRunning
	}

	defer h.setState(StateStopped)

	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if h.server == nil {
			return nil
		}
		return h.server.ShutdownWithContext(gCtx)
	})

	if err := g.Wait(); err != nil {
		select {
		case <-ctx.Done():
			h.logger.Warn("Server stop timeout, some connections may not have closed gracefully")
		default:
			h.logger.Error("Error during server shutdown", zap.Error(err))
		}
		return nil
	}

	h.logger.Info("HTTP server stopped gracefully")
	return nil
}

func (h *FastHTTPServer) IsRunning() bool {
	return h.getState() == StateRunning
}

func (h *FastHTTPServer) getState() State {
	return State(h.state.Load())
}

func (h *FastHTTPServer) setState(newState State) {
	h.state.Store(int32(newState))
}

func (h *FastHTTPServer) transitionState(from, to State) bool {
	return h.state.CompareAndSwap(int32(from), int32(to))
}
