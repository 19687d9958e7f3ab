package repository

import (
	"context"
	"database/sql"

	"migchat/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByToken(ctx context.Context, token string) (domain.Session, error)
	DeleteByToken(ctx context.Context, token string) error
}

type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO sessions (id, user_id, token, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.CreatedAt,
	)
	return err
}

func (r *SQLiteSessionRepository) GetByToken(ctx context.Context, token string) (domain.Session, error) {
	const query = `
		SELECT id, user_id, token, created_at
		FROM sessions
		WHERE token = ?
	`
	var session domain.Session
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (r *SQLiteSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	const query = `DELETE FROM sessions WHERE token = ?`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}
