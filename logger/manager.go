package logger

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
)

type State int32

const (
	StateStopped State = iota
	StateRunning
)

// Manager is the process logger. Every entry carries the fields it was
// built with, so log lines from several deployments can be told apart.
type Manager struct {
	logger *ZapWrapper
	state  atomic.Int32
}

func NewManager(config *types.LoggerConfig, fields ...zap.Field) (*Manager, error) {
	if config == nil {
		return nil, types.Errorf(types.ErrConfigNotFound, "logger section")
	}

	zapLogger, err := buildZapLogger(config)
	if err != nil {
		return nil, types.WrapError(err, "failed to create logger")
	}

	return &Manager{logger: NewZapWrapper(zapLogger.With(fields...))}, nil
}

func (m *Manager) Start() error {
	if !m.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return types.ErrServerAlreadyRunning
	}
	return nil
}

// Stop flushes buffered entries. The logger keeps working afterwards so late
// shutdown messages are not lost.
func (m *Manager) Stop() error {
	if !m.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		return types.ErrServerNotRunning
	}

	_ = m.logger.Sync()
	return nil
}

func (m *Manager) IsRunning() bool {
	return State(m.state.Load()) == StateRunning
}

func (m *Manager) Error(msg string, fields ...zap.Field) {
	m.logger.Error(msg, fields...)
}

func (m *Manager) Warn(msg string, fields ...zap.Field) {
	m.logger.Warn(msg, fields...)
}

func (m *Manager) Info(msg string, fields ...zap.Field) {
	m.logger.Info(msg, fields...)
}

func (m *Manager) Debug(msg string, fields ...zap.Field) {
	m.logger.Debug(msg, fields...)
}
