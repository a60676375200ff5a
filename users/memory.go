package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saiset-co/sai-authchain/types"
)

type memoryRecord struct {
	user         types.User
	passwordHash string
}

// MemoryUserService keeps accounts in insertion order. First returns the
// earliest created account.
type MemoryUserService struct {
	records    []*memoryRecord
	byID       map[string]*memoryRecord
	byUsername map[string]*memoryRecord
	mu         sync.RWMutex
}

func NewMemoryUserService() *MemoryUserService {
	return &MemoryUserService{
		byID:       make(map[string]*memoryRecord),
		byUsername: make(map[string]*memoryRecord),
	}
}

func (s *MemoryUserService) Create(_ context.Context, user *types.User, password string) error {
	if user == nil || user.Username == "" {
		return types.Errorf(types.ErrInvalidParameter, "username is empty")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[user.Username]; exists {
		return types.Errorf(types.ErrUserExists, "username: %s", user.Username)
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Role == "" {
		user.Role = types.RoleAdmin
	}

	record := &memoryRecord{user: *user, passwordHash: hash}
	s.records = append(s.records, record)
	s.byID[user.ID] = record
	s.byUsername[user.Username] = record

	return nil
}

// SetDisabled toggles an account without removing its tokens.
func (s *MemoryUserService) SetDisabled(userID string, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.byID[userID]
	if !exists {
		return types.Errorf(types.ErrUserNotFound, "id: %s", userID)
	}
	record.user.Disabled = disabled
	return nil
}

func (s *MemoryUserService) FindByCredential(_ context.Context, reference string) (*types.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.byID[reference]
	if !exists {
		return nil, false, nil
	}

	user := record.user
	return &user, true, nil
}

func (s *MemoryUserService) First(_ context.Context) (*types.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return nil, false, nil
	}

	user := s.records[0].user
	return &user, true, nil
}

func (s *MemoryUserService) Authenticate(_ context.Context, username, password string) (*types.User, error) {
	s.mu.RLock()
	record, exists := s.byUsername[username]
	s.mu.RUnlock()

	if !exists || record.user.Disabled || !checkPassword(record.passwordHash, password) {
		return nil, types.ErrBadCredentials
	}

	user := record.user
	return &user, nil
}
