package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/storage/entity"
)

func newMockRepo(t *testing.T) (*DocumentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestEnsureTable(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents.*CREATE UNIQUE INDEX IF NOT EXISTS uq_documents_profile_url").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDocuments(t *testing.T) {
	r, mock := newMockRepo(t)
	created := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "database_id", "collection_id", "data", "created_at"}).
		AddRow("d1", "fitness", "profiles", []byte(`{"username":"Ada","profileURL":"https://example.com/ada.png","userID":"42"}`), created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE database_id=$1 AND collection_id=$2")).
		WithArgs("fitness", "profiles").
		WillReturnRows(rows)

	docs, err := r.ListDocuments(context.Background(), "fitness", "profiles")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, created, docs[0].CreatedAt)

	var body struct {
		ProfileURL string `json:"profileURL"`
	}
	require.NoError(t, docs[0].Decode(&body))
	assert.Equal(t, "https://example.com/ada.png", body.ProfileURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDocumentsEmpty(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery("FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"id", "database_id", "collection_id", "data", "created_at"}))

	docs, err := r.ListDocuments(context.Background(), "fitness", "daily")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestCreateDocument(t *testing.T) {
	r, mock := newMockRepo(t)
	created := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO documents (id, database_id, collection_id, data)")).
		WithArgs("d2", "fitness", "daily", []byte(`{"stepCount":"4213"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	doc, err := r.CreateDocument(context.Background(), "fitness", "daily", "d2", map[string]string{"stepCount": "4213"})
	require.NoError(t, err)
	assert.Equal(t, "d2", doc.ID)
	assert.Equal(t, created, doc.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDocumentConflict(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT DO NOTHING RETURNING created_at")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	_, err := r.CreateDocument(context.Background(), "fitness", "profiles", "d4", map[string]string{"profileURL": "https://example.com/ada.png"})
	assert.ErrorIs(t, err, entity.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDocumentFailure(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery("INSERT INTO documents").WillReturnError(errors.New("duplicate key"))

	_, err := r.CreateDocument(context.Background(), "fitness", "daily", "d3", map[string]string{})
	assert.Error(t, err)
}
