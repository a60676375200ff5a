package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/saiset-co/sai-authchain/types"
)

type StoreState int32

const (
	StoreStateClosed StoreState = iota
	StoreStateOpening
	StoreStateOpen
	StoreStateClosing
)

var errStoreClosed = fmt.Errorf("%w: %w", types.ErrStoreUnavailable, types.ErrStoreClosed)

type lifecycle struct {
	state atomic.Int32
}

func (l *lifecycle) getState() StoreState {
	return StoreState(l.state.Load())
}

func (l *lifecycle) setState(newState StoreState) {
	l.state.Store(int32(newState))
}

func (l *lifecycle) transitionState(from, to StoreState) bool {
	return l.state.CompareAndSwap(int32(from), int32(to))
}

func (l *lifecycle) IsOpen() bool {
	return l.getState() == StoreStateOpen
}
