package db

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Open abre la base SQLite en path y crea el esquema si no existe. Con el
// path por defecto ":memory:" toda la base vive en el proceso y se pierde al
// reiniciar.
func Open(path string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Con ":memory:" cada conexión nueva del pool sería una base distinta y
	// vacía; una sola conexión mantiene una única base compartida y además
	// serializa las escrituras.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("database initialized", zap.String("path", path))
	return db, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			from_user_id TEXT NOT NULL,
			to_user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			read_at DATETIME,
			FOREIGN KEY (from_user_id) REFERENCES users(id),
			FOREIGN KEY (to_user_id) REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_from_user ON messages(from_user_id);
		CREATE INDEX IF NOT EXISTS idx_messages_to_user ON messages(to_user_id);

		CREATE TABLE IF NOT EXISTS user_keys (
			user_id TEXT PRIMARY KEY,
			identity_key TEXT NOT NULL,
			signed_prekey TEXT NOT NULL,
			signed_prekey_signature TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE TABLE IF NOT EXISTS one_time_prekeys (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			key_id INTEGER NOT NULL,
			public_key TEXT NOT NULL,
			used INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_one_time_prekeys_user ON one_time_prekeys(user_id);
	`
	_, err := db.Exec(schema)
	return err
}
