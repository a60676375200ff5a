package service

import (
	"context"
	"io"
	"math"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/saiset-co/sai-authchain/cache"
	"github.com/saiset-co/sai-authchain/chain"
	"github.com/saiset-co/sai-authchain/config"
	"github.com/saiset-co/sai-authchain/cron"
	"github.com/saiset-co/sai-authchain/failure"
	"github.com/saiset-co/sai-authchain/filter"
	"github.com/saiset-co/sai-authchain/health"
	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/metrics"
	"github.com/saiset-co/sai-authchain/pattern"
	"github.com/saiset-co/sai-authchain/security"
	"github.com/saiset-co/sai-authchain/server"
	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/users"
	"github.com/saiset-co/sai-authchain/utils"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

// Filter orders of the fixed chain. Lower runs first.
const (
	RecoveryFilterOrder    = math.MinInt32
	RequestIDFilterOrder   = math.MinInt32 + 1
	CompressionFilterOrder = math.MinInt32 + 2
	LogFilterOrder         = math.MinInt32 + 9
	ApiFilterOrder         = 0
	AdminFilterOrder       = 1
)

const defaultShutdownTimeout = 5 * time.Second

type Service struct {
	ctx             context.Context
	cancel          context.CancelFunc
	config          *types.ServiceConfig
	logger          *logger.Manager
	metrics         types.MetricsManager
	store           types.CacheStore
	cron            *cron.Manager
	users           users.Store
	tokens          *security.TokenService
	health          *health.Manager
	registrar       *chain.Registrar
	router          *server.Router
	server          *server.FastHTTPServer
	state           atomic.Int32
	shutdownTimeout time.Duration
}

// NewService loads configPath and assembles every component. Nothing is
// started until Start.
func NewService(ctx context.Context, configPath string) (*Service, error) {
	configManager, err := config.NewConfigurationManager(ctx, configPath)
	if err != nil {
		return nil, types.WrapError(err, "failed to load configuration")
	}

	return NewServiceWithConfig(ctx, configManager.GetConfig())
}

func NewServiceWithConfig(ctx context.Context, cfg *types.ServiceConfig) (*Service, error) {
	if err := config.NewLoader().Validate(cfg); err != nil {
		return nil, err
	}

	serviceCtx, cancel := context.WithCancel(ctx)

	s := &Service{
		ctx:             serviceCtx,
		cancel:          cancel,
		config:          cfg,
		shutdownTimeout: time.Duration(cfg.Server.HTTP.ShutdownTimeout) * time.Second,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = defaultShutdownTimeout
	}

	if err := s.assemble(); err != nil {
		cancel()
		return nil, err
	}

	return s, nil
}

func (s *Service) assemble() error {
	var err error
	cfg := s.config

	if s.logger, err = logger.NewManager(cfg.Logger,
		zap.String("service", cfg.Name),
		zap.String("version", cfg.Version),
	); err != nil {
		return types.WrapError(err, "failed to create logger")
	}

	if s.metrics, err = metrics.NewManager(cfg.Metrics, s.logger); err != nil {
		return types.WrapError(err, "failed to create metrics")
	}

	if s.store, err = cache.NewCacheStore(cfg.Cache, s.logger, s.metrics); err != nil {
		return types.WrapError(err, "failed to create cache store")
	}

	s.cron = cron.NewManager(s.logger, s.metrics)
	if err = cache.RegisterSweeper(s.cron, s.store, cfg.Cache.CleanupSchedule, s.logger); err != nil {
		return types.WrapError(err, "failed to schedule cache sweeper")
	}

	if s.users, err = users.NewUserStore(s.ctx, cfg.Users, s.logger); err != nil {
		return types.WrapError(err, "failed to create user store")
	}

	s.tokens = security.NewTokenService(s.store, s.users, s.logger, security.TokenServiceConfig{
		AccessTokenTTL:  cfg.Security.Admin.AccessTokenTTL,
		RefreshTokenTTL: cfg.Security.Admin.RefreshTokenTTL,
		ApiKeyTTL:       cfg.Cache.DefaultTTL,
	})

	fc := failure.FailureContext{ProductionEnv: cfg.ProductionEnv, Codec: utils.SonicCodec{}}
	defaultFailure := failure.NewDefaultHandler(fc, s.logger)
	adminFailure := failure.NewAdminHandler(fc, s.logger)

	if s.registrar, err = s.buildChain(defaultFailure, adminFailure); err != nil {
		return types.WrapError(err, "failed to build filter chain")
	}

	s.health = health.NewManager(types.ServiceInfo{Name: cfg.Name, Version: cfg.Version}, s.logger)
	s.health.RegisterChecker("cache", s.checkCache)
	if _, scheduled := s.cron.Job(cache.SweeperJobName); scheduled {
		s.health.RegisterChecker(cache.SweeperJobName, s.cron.HealthChecker(cache.SweeperJobName))
	}

	s.router = server.NewRouter()
	if err = server.NewAdminHandlers(s.tokens, adminFailure, s.logger).Register(s.router); err != nil {
		return types.WrapError(err, "failed to register routes")
	}
	if err = s.router.GET("/health", s.health.Handler); err != nil {
		return err
	}
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		if err = s.router.GET(cfg.Metrics.Path, s.metrics.Handler()); err != nil {
			return err
		}
	}

	if s.server, err = server.NewHTTPServer(cfg.Server.HTTP, s.logger, s.Handler()); err != nil {
		return types.WrapError(err, "failed to create http server")
	}

	return nil
}

func (s *Service) buildChain(defaultFailure, adminFailure types.FailureHandler) (*chain.Registrar, error) {
	cfg := s.config
	registrar := chain.NewRegistrar(s.logger)

	recovery := filter.NewRecoveryFilter(s.logger, s.metrics, !cfg.ProductionEnv)
	logFilter := filter.NewLogFilter(s.logger, !cfg.ProductionEnv)

	apiFilter := filter.NewAuthenticationFilter("api",
		filter.NewApiAuthenticator(s.store, cfg.Security.Api.Enabled),
		defaultFailure,
		s.logger,
		filter.WithMetrics(s.metrics),
	)

	adminFilter := filter.NewAuthenticationFilter("admin",
		filter.NewAdminAuthenticator(s.store, s.users, s.logger, filter.AdminAuthenticatorConfig{
			AuthEnabled: cfg.Security.AuthEnabled,
			Roles:       cfg.Security.Admin.Roles,
		}),
		adminFailure,
		s.logger,
		filter.WithExcludeRules(pattern.MustRuleSet(pattern.Any("/admin/api/login"))),
		filter.WithTryAuthRules(pattern.MustRuleSet(
			pattern.Method("POST", "/admin/api/comments"),
			pattern.Method("POST", "/api/comments"),
		)),
		filter.WithMetrics(s.metrics),
	)

	type registration struct {
		filter   types.Filter
		order    int
		patterns []string
	}

	registrations := []registration{
		{recovery, RecoveryFilterOrder, []string{"/*"}},
		{filter.NewRequestIDFilter(), RequestIDFilterOrder, []string{"/*"}},
		{logFilter, LogFilterOrder, []string{"/api/*", "/admin/*"}},
		{apiFilter, ApiFilterOrder, []string{"/api/*"}},
		{adminFilter, AdminFilterOrder, []string{"/admin/*", "/api/comments"}},
	}

	if compression := cfg.Server.Compression; compression != nil && compression.Enabled {
		compressionFilter, err := filter.NewCompressionFilter(compression, s.logger)
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, registration{compressionFilter, CompressionFilterOrder, []string{"/*"}})
	}

	for _, reg := range registrations {
		if err := registrar.Register(reg.filter, reg.order, reg.patterns...); err != nil {
			return nil, err
		}
	}

	if err := registrar.Finalize(); err != nil {
		return nil, err
	}

	return registrar, nil
}

// Handler is the router behind the finalized filter chain.
func (s *Service) Handler() types.FastHTTPHandler {
	return s.registrar.Handler(s.router.Handle)
}

func (s *Service) Tokens() *security.TokenService {
	return s.tokens
}

func (s *Service) Users() users.Store {
	return s.users
}

func (s *Service) Store() types.CacheStore {
	return s.store
}

func (s *Service) Health() *health.Manager {
	return s.health
}

// Start brings up the store and the background components, then the HTTP
// server. It returns once the server is listening.
func (s *Service) Start() error {
	if !s.transitionState(StateStopped, StateStarting) {
		return types.ErrServerAlreadyRunning
	}

	if err := s.startComponents(); err != nil {
		s.setState(StateStopped)
		return types.WrapError(err, "failed to start components")
	}

	if err := s.server.Start(); err != nil {
		_ = s.stopComponents()
		_ = s.logger.Stop()
		s.setState(StateStopped)
		return types.WrapError(err, "failed to start http server")
	}

	s.setState(StateRunning)
	s.logger.Info("Service started successfully",
		zap.String("name", s.config.Name),
		zap.String("version", s.config.Version),
		zap.String("address", s.server.Address()))

	return nil
}

// Run starts the service and blocks until the context is cancelled or a
// shutdown signal arrives.
func (s *Service) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		s.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-s.ctx.Done():
		s.logger.Info("Service context cancelled")
	}

	return s.Stop()
}

func (s *Service) Stop() error {
	if !s.transitionState(StateRunning, StateStopping) {
		return types.ErrServerNotRunning
	}
	defer s.setState(StateStopped)

	s.logger.Info("Stopping service...")

	if err := s.server.Stop(); err != nil {
		s.logger.Error("Failed to stop http server", zap.Error(err))
	}

	err := s.stopComponents()
	usersErr := s.closeUsers()
	if err == nil {
		err = usersErr
	}
	s.cancel()

	s.logger.Info("Service stopped gracefully")
	_ = s.logger.Stop()

	return err
}

func (s *Service) IsRunning() bool {
	return s.getState() == StateRunning
}

func (s *Service) startComponents() error {
	if err := s.logger.Start(); err != nil {
		return types.WrapError(err, "failed to start logger")
	}

	if err := s.store.Open(); err != nil {
		_ = s.logger.Stop()
		return types.WrapError(err, "failed to open cache store")
	}

	var g errgroup.Group

	g.Go(func() error {
		if err := s.metrics.Start(); err != nil {
			s.logger.Error("Failed to start metrics manager", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		return s.cron.Start()
	})

	if err := g.Wait(); err != nil {
		_ = s.store.Close()
		_ = s.metrics.Stop()
		_ = s.logger.Stop()
		return err
	}

	return nil
}

func (s *Service) stopComponents() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var g errgroup.Group

	g.Go(func() error {
		if err := s.cron.Stop(); err != nil {
			s.logger.Error("Failed to stop cron manager", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		if err := s.metrics.Stop(); err != nil {
			s.logger.Error("Failed to stop metrics manager", zap.Error(err))
		}
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case <-ctx.Done():
		s.logger.Warn("Component stop timeout, some components may not have stopped gracefully")
	case <-done:
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close cache store", zap.Error(err))
		return err
	}

	return nil
}

// closeUsers releases the user store. It is opened once at assembly, so only
// Stop closes it and a failed Start can be retried.
func (s *Service) closeUsers() error {
	closer, ok := s.users.(io.Closer)
	if !ok {
		return nil
	}

	if err := closer.Close(); err != nil {
		s.logger.Error("Failed to close user store", zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) checkCache(_ context.Context) error {
	if !s.store.IsOpen() {
		return types.ErrStoreClosed
	}
	if pinger, ok := s.store.(types.Pinger); ok {
		return pinger.Ping()
	}
	return nil
}

func (s *Service) getState() State {
	return State(s.state.Load())
}

func (s *Service) setState(newState State) {
	s.state.Store(int32(newState))
}

func (s *Service) transitionState(from, to State) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}
