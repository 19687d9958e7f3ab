package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"migchat/internal/domain"
)

// KeyRepository persiste el material público de cifrado extremo a extremo.
type KeyRepository interface {
	UpsertBundle(ctx context.Context, key domain.UserKey) error
	ReplaceOneTimePrekeys(ctx context.Context, userID string, prekeys []string, createdAt time.Time) error
	GetBundle(ctx context.Context, userID string) (domain.UserKey, error)
	// TakeOneTimePrekeys devuelve hasta limit prekeys sin usar y marca la
	// primera como consumida, según exige el handshake X3DH.
	TakeOneTimePrekeys(ctx context.Context, userID string, limit int) ([]string, error)
}

type SQLiteKeyRepository struct {
	db *sql.DB
}

func NewSQLiteKeyRepository(db *sql.DB) *SQLiteKeyRepository {
	return &SQLiteKeyRepository{db: db}
}

func (r *SQLiteKeyRepository) UpsertBundle(ctx context.Context, key domain.UserKey) error {
	const query = `
		INSERT INTO user_keys (user_id, identity_key, signed_prekey, signed_prekey_signature, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			identity_key = excluded.identity_key,
			signed_prekey = excluded.signed_prekey,
			signed_prekey_signature = excluded.signed_prekey_signature
	`
	_, err := r.db.ExecContext(ctx, query,
		key.UserID,
		key.IdentityKey,
		key.SignedPrekey,
		key.SignedPrekeySignature,
		key.CreatedAt,
	)
	return err
}

func (r *SQLiteKeyRepository) ReplaceOneTimePrekeys(ctx context.Context, userID string, prekeys []string, createdAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM one_time_prekeys WHERE user_id = ?`, userID); err != nil {
		return err
	}

	const insert = `
		INSERT INTO one_time_prekeys (id, user_id, key_id, public_key, used, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`
	for i, prekey := range prekeys {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), userID, i, prekey, createdAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteKeyRepository) GetBundle(ctx context.Context, userID string) (domain.UserKey, error) {
	const query = `
		SELECT user_id, identity_key, signed_prekey, signed_prekey_signature, created_at
		FROM user_keys
		WHERE user_id = ?
	`
	var key domain.UserKey
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&key.UserID,
		&key.IdentityKey,
		&key.SignedPrekey,
		&key.SignedPrekeySignature,
		&key.CreatedAt,
	)
	if err != nil {
		return domain.UserKey{}, err
	}
	return key, nil
}

func (r *SQLiteKeyRepository) TakeOneTimePrekeys(ctx context.Context, userID string, limit int) ([]string, error) {
	const query = `
		SELECT id, public_key
		FROM one_time_prekeys
		WHERE user_id = ? AND used = 0
		ORDER BY key_id ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	prekeys := make([]string, 0)
	for rows.Next() {
		var id, publicKey string
		if err := rows.Scan(&id, &publicKey); err != nil {
			return nil, err
		}
		ids = append(ids, id)
		prekeys = append(prekeys, publicKey)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		if _, err := r.db.ExecContext(ctx, `UPDATE one_time_prekeys SET used = 1 WHERE id = ?`, ids[0]); err != nil {
			return nil, err
		}
	}
	return prekeys, nil
}
