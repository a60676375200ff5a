package cron

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

type Manager struct {
	logger          types.Logger
	metrics         types.MetricsManager
	cron            *cron.Cron
	jobs            map[string]*types.JobEntry
	state           atomic.Int32
	mu              sync.RWMutex
	shutdownTimeout time.Duration
}

func NewManager(logger types.Logger, metrics types.MetricsManager) *Manager {
	parser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	cronL := cronLogger{logger: logger}

	return &Manager{
		logger:  logger,
		metrics: metrics,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cronL)),
			cron.WithLogger(cronL),
		),
		jobs:            make(map[string]*types.JobEntry),
		shutdownTimeout: 10 * time.Second,
	}
}

func (m *Manager) Add(jobName, spec string, job func()) error {
	if jobName == "" {
		return types.ErrCronJobNameIsEmpty
	}

	if spec == "" {
		return types.ErrCronExpressionInvalid
	}

	if job == nil {
		return types.ErrCronJobIsNil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[jobName]; exists {
		return types.Errorf(types.ErrCronJobExists, "job: %s", jobName)
	}

	entryID, err := m.cron.AddFunc(spec, m.wrapJob(jobName, job))
	if err != nil {
		return types.Errorf(types.ErrCronExpressionInvalid, "%s: %v", spec, err)
	}

	m.jobs[jobName] = &types.JobEntry{
		ID:      entryID,
		Name:    jobName,
		Spec:    spec,
		AddedAt: time.Now(),
	}

	m.logger.Info("Cron job added",
		zap.String("job_name", jobName),
		zap.String("spec", spec))

	return nil
}

func (m *Manager) Start() error {
	if !m.transitionState(StateStopped, StateStarting) {
		return types.ErrServerAlreadyRunning
	}

	m.cron.Start()
	m.setState(StateRunning)

	m.logger.Info("Cron manager started")
	return nil
}

func (m *Manager) Stop() error {
	if !m.transitionState(StateRunning, StateStopping) {
		return types.ErrServerNotRunning
	}
	defer m.setState(StateStopped)

	stopCtx := m.cron.Stop()

	select {
	case <-stopCtx.Done():
		m.logger.Info("Cron scheduler stopped gracefully")
		return nil
	case <-time.After(m.shutdownTimeout):
		return types.WrapError(context.DeadlineExceeded, "cron jobs did not finish in time")
	}
}

func (m *Manager) IsRunning() bool {
	return m.getState() == StateRunning
}

// Job returns a copy of the job bookkeeping entry.
func (m *Manager) Job(jobName string) (types.JobEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.jobs[jobName]
	if !exists {
		return types.JobEntry{}, false
	}
	return *entry, true
}

// Run executes a registered job immediately in the caller's goroutine.
func (m *Manager) Run(jobName string) bool {
	m.mu.RLock()
	entry, exists := m.jobs[jobName]
	m.mu.RUnlock()

	if !exists {
		return false
	}

	m.cron.Entry(entry.ID).WrappedJob.Run()
	return true
}

func (m *Manager) getState() State {
	return State(m.state.Load())
}

func (m *Manager) setState(newState State) {
	m.state.Store(int32(newState))
}

func (m *Manager) transitionState(from, to State) bool {
	return m.state.CompareAndSwap(int32(from), int32(to))
}

func (m *Manager) wrapJob(jobName string, job func()) func() {
	return func() {
		startTime := time.Now()
		err := runJob(job)

		m.mu.Lock()
		if entry, exists := m.jobs[jobName]; exists {
			entry.LastRun = startTime
			entry.RunCount++
			entry.LastError = ""
			if err != nil {
				entry.LastError = err.Error()
			}
		}
		m.mu.Unlock()

		result := "success"
		if err != nil {
			result = "error"
			m.logger.Error("Cron job failed", zap.String("job_name", jobName), zap.Error(err))
		}

		if m.metrics != nil {
			m.metrics.Counter("cron_job_executions_total", map[string]string{
				"job":    jobName,
				"result": result,
			}).Inc()
		}

		m.logger.Debug("Cron job completed",
			zap.String("job_name", jobName),
			zap.Duration("duration", time.Since(startTime)))
	}
}

func runJob(job func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	job()
	return nil
}

// HealthChecker fails while the latest run of jobName failed.
func (m *Manager) HealthChecker(jobName string) types.HealthChecker {
	return func(context.Context) error {
		entry, ok := m.Job(jobName)
		if !ok {
			return types.Errorf(types.ErrInvalidParameter, "cron job %s is not registered", jobName)
		}
		if entry.LastError != "" {
			return types.NewErrorf("last %s run failed: %s", jobName, entry.LastError)
		}
		return nil
	}
}

type cronLogger struct {
	logger types.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
