package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	nickname TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	disabled BOOLEAN NOT NULL DEFAULT false,
	created_at DATETIME NOT NULL
)`

const userColumns = "id, username, nickname, email, role, disabled, created_at"

type SQLiteUserService struct {
	db     *sql.DB
	logger types.Logger
}

func NewSQLiteUserService(ctx context.Context, dsn string, logger types.Logger) (*SQLiteUserService, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(err, "failed to open SQLite database")
	}

	service, err := NewSQLiteUserServiceWithDB(ctx, db, logger)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Failed to close database during cleanup", zap.Error(closeErr))
		}
		return nil, err
	}

	return service, nil
}

// NewSQLiteUserServiceWithDB runs the schema migration on an existing handle.
func NewSQLiteUserServiceWithDB(ctx context.Context, db *sql.DB, logger types.Logger) (*SQLiteUserService, error) {
	s := &SQLiteUserService{db: db, logger: logger}

	if _, err := db.ExecContext(ctx, createUsersTable); err != nil {
		return nil, types.WrapError(err, "failed to initialize users table")
	}

	return s, nil
}

func (s *SQLiteUserService) Close() error {
	return s.db.Close()
}

func (s *SQLiteUserService) Create(ctx context.Context, user *types.User, password string) error {
	if user == nil || user.Username == "" {
		return types.Errorf(types.ErrInvalidParameter, "username is empty")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, nickname, email, role, password_hash, disabled, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Nickname, user.Email, user.Role, hash, user.Disabled, user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return types.Errorf(types.ErrUserExists, "username: %s", user.Username)
		}
		return types.WrapError(err, "failed to insert user")
	}

	s.logger.Info("User created", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return nil
}

func (s *SQLiteUserService) FindByCredential(ctx context.Context, reference string) (*types.User, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", reference)
	return scanUser(row)
}

func (s *SQLiteUserService) First(ctx context.Context) (*types.User, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at ASC LIMIT 1")
	return scanUser(row)
}

func (s *SQLiteUserService) Authenticate(ctx context.Context, username, password string) (*types.User, error) {
	var hash string
	user := &types.User{}

	err := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+", password_hash FROM users WHERE username = ?", username,
	).Scan(&user.ID, &user.Username, &user.Nickname, &user.Email, &user.Role, &user.Disabled, &user.CreatedAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrBadCredentials
		}
		return nil, types.WrapError(err, "failed to query user")
	}

	if user.Disabled || !checkPassword(hash, password) {
		return nil, types.ErrBadCredentials
	}

	return user, nil
}

func scanUser(row *sql.Row) (*types.User, bool, error) {
	user := &types.User{}

	err := row.Scan(&user.ID, &user.Username, &user.Nickname, &user.Email, &user.Role, &user.Disabled, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, types.WrapError(err, "failed to query user")
	}

	return user, true, nil
}
