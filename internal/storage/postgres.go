package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jwebster45206/text-rpg/pkg/storage"
)

const savesDDL = `
CREATE TABLE IF NOT EXISTS saves (
    name           TEXT PRIMARY KEY,
    character_name TEXT NOT NULL DEFAULT '',
    saved_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    version        TEXT NOT NULL DEFAULT '',
    data           JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saves_saved_at ON saves (saved_at DESC);
`

// PostgresStore keeps saves in a single table with the document as JSONB.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

var _ storage.SaveStore = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn and creates the saves table if missing.
func NewPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, savesDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating saves table: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger, now: time.Now}, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// Save inserts under the first free name; ON CONFLICT DO NOTHING makes a
// taken name affect zero rows.
func (p *PostgresStore) Save(ctx context.Context, name string, doc storage.Document, info storage.SaveInfo) (string, error) {
	base, err := storage.BaseName(name, p.now())
	if err != nil {
		return "", err
	}
	if info.SavedAt.IsZero() {
		info.SavedAt = p.now()
	}

	for n := range storage.MaxNameAttempts {
		candidate := storage.Candidate(base, n)
		data, err := doc(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to encode save: %w", err)
		}
		tag, err := p.pool.Exec(ctx,
			`INSERT INTO saves (name, character_name, saved_at, version, data)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (name) DO NOTHING`,
			candidate, info.CharacterName, info.SavedAt, info.Version, data)
		if err != nil {
			p.logger.Error("Failed to save game", "name", candidate, "error", err)
			return "", fmt.Errorf("failed to save game: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", storage.ErrNoFreeName, base)
}

func (p *PostgresStore) Load(ctx context.Context, name string) ([]byte, error) {
	key, err := storage.LookupName(name)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = p.pool.QueryRow(ctx, `SELECT data FROM saves WHERE name = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrSaveNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load save: %w", err)
	}
	return data, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]storage.SaveInfo, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT name, character_name, saved_at, version FROM saves ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	saves := make([]storage.SaveInfo, 0)
	for rows.Next() {
		var info storage.SaveInfo
		if err := rows.Scan(&info.Name, &info.CharacterName, &info.SavedAt, &info.Version); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		saves = append(saves, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return saves, nil
}

func (p *PostgresStore) Delete(ctx context.Context, name string) error {
	key, err := storage.LookupName(name)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM saves WHERE name = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrSaveNotFound, key)
	}
	return nil
}
