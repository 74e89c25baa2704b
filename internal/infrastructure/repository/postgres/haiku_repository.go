package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

// schemaLockID serialises bootstrap DDL across api and worker startups.
const schemaLockID int64 = 2026041801

type HaikuRepository struct {
	db *sql.DB
}

func NewHaikuRepository(db *sql.DB) *HaikuRepository {
	return &HaikuRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *HaikuRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS haikus (
	id BIGSERIAL PRIMARY KEY,
	input_word TEXT NOT NULL,
	language TEXT NOT NULL,
	haiku_text TEXT NOT NULL,
	image_data TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_haikus_created_at ON haikus(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Create inserts the artifact and fills in its ID.
func (r *HaikuRepository) Create(ctx context.Context, artifact *domain.StoredArtifact) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO haikus (input_word, language, haiku_text, image_data, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`,
		artifact.InputWord, string(artifact.Language), artifact.HaikuText, artifact.ImageData, artifact.CreatedAt,
	).Scan(&artifact.ID)
	if err != nil {
		return fmt.Errorf("insert haiku: %w", err)
	}
	return nil
}

// List returns up to limit artifacts, newest first. A non-positive limit
// binds NULL, which postgres reads as no limit.
func (r *HaikuRepository) List(ctx context.Context, limit int) ([]domain.StoredArtifact, error) {
	bound := sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, input_word, language, haiku_text, image_data, created_at
FROM haikus
ORDER BY created_at DESC, id DESC
LIMIT $1
`, bound)
	if err != nil {
		return nil, fmt.Errorf("query haikus: %w", err)
	}
	defer rows.Close()

	items := make([]domain.StoredArtifact, 0)
	for rows.Next() {
		var item domain.StoredArtifact
		var language string
		if err := rows.Scan(&item.ID, &item.InputWord, &language, &item.HaikuText, &item.ImageData, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan haiku: %w", err)
		}
		item.Language = domain.Language(language)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate haikus: %w", err)
	}
	return items, nil
}

func (r *HaikuRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
