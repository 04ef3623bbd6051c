package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/storage/entity"
)

// DocumentRepo stores JSON documents in a single PostgreSQL table, keyed by
// database and collection ids.
type DocumentRepo struct {
	db *sqlx.DB
}

func NewDocumentRepo(db *sqlx.DB) *DocumentRepo { return &DocumentRepo{db: db} }

// EnsureTable creates the documents table if not exists (idempotent).
func (r *DocumentRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
  id VARCHAR(32) PRIMARY KEY,
  database_id VARCHAR(64) NOT NULL,
  collection_id VARCHAR(64) NOT NULL,
  data JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(database_id, collection_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_documents_profile_url
  ON documents(database_id, collection_id, (data->>'profileURL'))
  WHERE data ? 'profileURL';
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// ListDocuments returns every document of a collection, oldest first.
func (r *DocumentRepo) ListDocuments(ctx context.Context, databaseID, collectionID string) ([]entity.Document, error) {
	const q = `SELECT id, database_id, collection_id, data, created_at
	  FROM documents WHERE database_id=$1 AND collection_id=$2 ORDER BY created_at`
	rows := []entity.Document{}
	if err := r.db.SelectContext(ctx, &rows, q, databaseID, collectionID); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateDocument inserts data under id. A row that would violate the id key
// or the profile URL index is not written and entity.ErrDuplicate returned.
func (r *DocumentRepo) CreateDocument(ctx context.Context, databaseID, collectionID, id string, data any) (*entity.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	const q = `INSERT INTO documents (id, database_id, collection_id, data)
	  VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING RETURNING created_at`
	doc := &entity.Document{ID: id, DatabaseID: databaseID, CollectionID: collectionID, DataRaw: raw}
	err = r.db.QueryRowxContext(ctx, q, id, databaseID, collectionID, raw).Scan(&doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
