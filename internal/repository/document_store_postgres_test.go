package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letterforge/letterforge/internal/domain"
)

func TestDocumentStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresDocumentStore(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO document_files (file_ref, name, content, created_at)`)).
		WithArgs(sqlmock.AnyArg(), "offer_letter-E001-v2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	fileRef, err := store.Save(context.Background(), "offer_letter-E001-v2", &domain.DocumentContent{
		Runs: []domain.TextRun{{Text: "Dear Avery Chen,"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, fileRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresDocumentStore(db)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT content FROM document_files WHERE file_ref = $1`)).
			WithArgs("ref-1").
			WillReturnRows(sqlmock.NewRows([]string{"content"}).
				AddRow([]byte(`{"runs":[{"text":"Dear Avery Chen,"}]}`)))

		content, err := store.Load(context.Background(), "ref-1")
		require.NoError(t, err)
		require.Len(t, content.Runs, 1)
		assert.Equal(t, "Dear Avery Chen,", content.Runs[0].Text)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT content FROM document_files WHERE file_ref = $1`)).
			WithArgs("ref-missing").
			WillReturnRows(sqlmock.NewRows([]string{"content"}))

		_, err := store.Load(context.Background(), "ref-missing")
		assert.True(t, domain.IsNotFound(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
