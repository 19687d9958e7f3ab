package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"migchat/internal/domain"
)

// ErrUsernameTaken indica una violación del índice único sobre username.
var ErrUsernameTaken = errors.New("username already exists")

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	UpdateUsername(ctx context.Context, id, username string) error
}

// SQLiteUserRepository implementa UserRepository sobre database/sql.
type SQLiteUserRepository struct {
	db *sql.DB
}

func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	)
	if isUniqueConstraintError(err) {
		return ErrUsernameTaken
	}
	return err
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = ?
	`
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *SQLiteUserRepository) UpdateUsername(ctx context.Context, id, username string) error {
	const query = `UPDATE users SET username = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, username, id)
	if isUniqueConstraintError(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// isUniqueConstraintError detecta violaciones de restricción UNIQUE de SQLite.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
