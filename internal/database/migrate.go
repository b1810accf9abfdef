package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema per driver.  CREATE ... IF NOT EXISTS keeps Migrate idempotent.
// reviews.movie_id cascades on delete: removing a movie removes its reviews.
var schemas = map[string][]string{
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS accounts (
			id            CHAR(36)     NOT NULL PRIMARY KEY,
			email         VARCHAR(255) NOT NULL UNIQUE,
			username      VARCHAR(64)  NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at    DATETIME(6)  NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			account_id CHAR(36)    NOT NULL,
			token_hash CHAR(64)    NOT NULL UNIQUE,
			expires_at DATETIME(6) NOT NULL,
			revoked_at DATETIME(6) NULL,
			created_at DATETIME(6) NOT NULL,
			CONSTRAINT fk_refresh_account FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS users (
			id         CHAR(36)     NOT NULL PRIMARY KEY,
			username   VARCHAR(64)  NOT NULL UNIQUE,
			email      VARCHAR(255) NOT NULL UNIQUE,
			created_at DATETIME(6)  NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS movies (
			id           CHAR(36)      NOT NULL PRIMARY KEY,
			title        VARCHAR(255)  NOT NULL,
			genre        VARCHAR(100)  NULL,
			release_year SMALLINT      NULL,
			poster_url   VARCHAR(1024) NULL,
			created_at   DATETIME(6)   NOT NULL,
			INDEX idx_movies_title (title)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id         CHAR(36)    NOT NULL PRIMARY KEY,
			movie_id   CHAR(36)    NOT NULL,
			user_id    CHAR(36)    NULL,
			rating     TINYINT     NOT NULL,
			comment    TEXT        NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_reviews_movie_created (movie_id, created_at),
			INDEX idx_reviews_created (created_at),
			CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 1 AND 5),
			CONSTRAINT fk_reviews_movie FOREIGN KEY (movie_id) REFERENCES movies(id) ON DELETE CASCADE,
			CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS accounts (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			email      TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movies (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			genre        TEXT NULL,
			release_year INTEGER NULL,
			poster_url   TEXT NULL,
			created_at   DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id         TEXT PRIMARY KEY,
			movie_id   TEXT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
			user_id    TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
			rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_movie_created ON reviews(movie_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(created_at)`,
	},
}

// Migrate applies the schema for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("database: no schema for driver %q", driver)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: migration %d: %w", i+1, err)
		}
	}
	return nil
}
