package repository

import (
	"context"
	"database/sql"
	"time"

	"migchat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	// ListForUser devuelve todos los mensajes donde el usuario participa,
	// ordenados del más reciente al más antiguo.
	ListForUser(ctx context.Context, userID string) ([]domain.MessageView, error)
	// ListBetween devuelve los mensajes intercambiados entre dos usuarios,
	// ordenados del más reciente al más antiguo.
	ListBetween(ctx context.Context, userID, otherID string) ([]domain.MessageView, error)
	// MarkRead marca como leídos los mensajes de fromID hacia toID que aún no
	// tienen read_at y devuelve cuántos fueron afectados.
	MarkRead(ctx context.Context, fromID, toID string, readAt time.Time) (int64, error)
}

type SQLiteMessageRepository struct {
	db *sql.DB
}

func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

func (r *SQLiteMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, from_user_id, to_user_id, content, created_at, read_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.FromUserID,
		message.ToUserID,
		message.Content,
		message.CreatedAt,
		message.ReadAt,
	)
	return err
}

// El desempate por id mantiene determinista el orden entre mensajes creados en
// el mismo instante.
const messageViewSelect = `
	SELECT
		m.id,
		m.from_user_id,
		m.to_user_id,
		from_user.username AS from_username,
		to_user.username AS to_username,
		m.content,
		m.created_at,
		m.read_at
	FROM messages m
	JOIN users from_user ON m.from_user_id = from_user.id
	JOIN users to_user ON m.to_user_id = to_user.id
`

func (r *SQLiteMessageRepository) ListForUser(ctx context.Context, userID string) ([]domain.MessageView, error) {
	query := messageViewSelect + `
		WHERE m.from_user_id = ? OR m.to_user_id = ?
		ORDER BY m.created_at DESC, m.id DESC
	`
	return r.queryViews(ctx, query, userID, userID)
}

func (r *SQLiteMessageRepository) ListBetween(ctx context.Context, userID, otherID string) ([]domain.MessageView, error) {
	query := messageViewSelect + `
		WHERE (m.from_user_id = ? AND m.to_user_id = ?)
		   OR (m.from_user_id = ? AND m.to_user_id = ?)
		ORDER BY m.created_at DESC, m.id DESC
	`
	return r.queryViews(ctx, query, userID, otherID, otherID, userID)
}

func (r *SQLiteMessageRepository) MarkRead(ctx context.Context, fromID, toID string, readAt time.Time) (int64, error) {
	const query = `
		UPDATE messages SET read_at = ?
		WHERE from_user_id = ? AND to_user_id = ? AND read_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, readAt, fromID, toID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteMessageRepository) queryViews(ctx context.Context, query string, args ...any) ([]domain.MessageView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]domain.MessageView, 0)
	for rows.Next() {
		var v domain.MessageView
		if err := rows.Scan(
			&v.ID,
			&v.FromUserID,
			&v.ToUserID,
			&v.FromUsername,
			&v.ToUsername,
			&v.Content,
			&v.CreatedAt,
			&v.ReadAt,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
