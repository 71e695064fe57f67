package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/repo/postgres"
)

var itemColumns = []string{"id", "type", "title", "slug", "content", "metadata", "status", "created_at", "updated_at"}

//nolint:ireturn // Returning interface is appropriate for test mock helper
func newRepoWithMock(t *testing.T) (sitecontent.Repository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	return postgres.New(mock), mock
}

func sampleItem() *sitecontent.Item {
	return &sitecontent.Item{
		ID:        "page_about_1700000000000",
		Type:      sitecontent.ContentTypePage,
		Title:     "About",
		Slug:      "about",
		Content:   map[string]any{"body": "We build gardens."},
		Status:    sitecontent.ContentStatusDraft,
		CreatedAt: "2024-01-01T00:00:00.000Z",
		UpdatedAt: "2024-01-01T00:00:00.000Z",
	}
}

func sampleRow(rows *pgxmock.Rows, item *sitecontent.Item, metadata []byte) *pgxmock.Rows {
	return rows.AddRow(item.ID, string(item.Type), item.Title, item.Slug,
		[]byte(`{"body":"We build gardens."}`), metadata,
		string(item.Status), item.CreatedAt, item.UpdatedAt)
}

func TestPutIfAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a new row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		item := sampleItem()

		mock.ExpectExec("INSERT INTO content_items").
			WithArgs(item.ID, "page", "About", "about", pgxmock.AnyArg(), pgxmock.AnyArg(), "draft", item.CreatedAt, item.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.PutIfAbsent(ctx, item))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict leaves the row and reports duplicate", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectExec("INSERT INTO content_items").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		err := repo.PutIfAbsent(ctx, sampleItem())
		assert.ErrorIs(t, err, sitecontent.ErrDuplicateKey)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to duplicate", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectExec("INSERT INTO content_items").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.PutIfAbsent(ctx, sampleItem())
		assert.ErrorIs(t, err, sitecontent.ErrDuplicateKey)
	})

	t.Run("transport failure is a storage error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectExec("INSERT INTO content_items").
			WillReturnError(errors.New("connection reset"))

		err := repo.PutIfAbsent(ctx, sampleItem())
		var storageErr *sitecontent.StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "postgres", storageErr.Backend)
		assert.Equal(t, "put", storageErr.Op)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		item := sampleItem()

		mock.ExpectQuery(`SELECT (.+) FROM content_items WHERE id = \$1`).
			WithArgs(item.ID).
			WillReturnRows(sampleRow(pgxmock.NewRows(itemColumns), item, []byte(`{"order":1}`)))

		got, err := repo.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)
		assert.Equal(t, sitecontent.ContentTypePage, got.Type)
		assert.Equal(t, "We build gardens.", got.Content["body"])
		assert.Equal(t, float64(1), got.Metadata["order"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM content_items WHERE id = \$1`).
			WithArgs("nope").
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.Get(ctx, "nope")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	})
}

func TestScan(t *testing.T) {
	ctx := context.Background()

	t.Run("no filter", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		item := sampleItem()

		mock.ExpectQuery(`SELECT (.+) FROM content_items ORDER BY created_at, id`).
			WillReturnRows(sampleRow(pgxmock.NewRows(itemColumns), item, []byte(nil)))

		items, err := repo.Scan(ctx, sitecontent.Filter{})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].Metadata)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("type and status filter", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectQuery(`FROM content_items WHERE type = \$1 AND status = \$2 ORDER BY`).
			WithArgs("post", "published").
			WillReturnRows(pgxmock.NewRows(itemColumns))

		items, err := repo.Scan(ctx, sitecontent.Where(sitecontent.FieldType, "post").And(sitecontent.FieldStatus, "published"))
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("document fields cannot be filtered", func(t *testing.T) {
		repo, _ := newRepoWithMock(t)
		_, err := repo.Scan(ctx, sitecontent.Where(sitecontent.FieldContent, "x"))
		assert.Error(t, err)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("sets assigned columns and returns the row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		item := sampleItem()
		item.Title = "About Us"
		item.UpdatedAt = "2024-02-01T00:00:00.000Z"

		mock.ExpectQuery(`UPDATE content_items SET title = \$2, updated_at = \$3 WHERE id = \$1 RETURNING`).
			WithArgs(item.ID, "About Us", "2024-02-01T00:00:00.000Z").
			WillReturnRows(sampleRow(pgxmock.NewRows(itemColumns), item, []byte(nil)))

		got, err := repo.Update(ctx, item.ID, sitecontent.Set(sitecontent.FieldTitle, "About Us").
			Set(sitecontent.FieldUpdatedAt, "2024-02-01T00:00:00.000Z"))
		require.NoError(t, err)
		assert.Equal(t, "About Us", got.Title)
		assert.Equal(t, "2024-02-01T00:00:00.000Z", got.UpdatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("enum values are written as text", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		item := sampleItem()

		mock.ExpectQuery(`UPDATE content_items SET status = \$2 WHERE id = \$1`).
			WithArgs(item.ID, "archived").
			WillReturnRows(sampleRow(pgxmock.NewRows(itemColumns), item, []byte(nil)))

		_, err := repo.Update(ctx, item.ID, sitecontent.Set(sitecontent.FieldStatus, sitecontent.ContentStatusArchived))
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil metadata is written as sql null", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		item := sampleItem()

		mock.ExpectQuery(`UPDATE content_items SET metadata = \$2 WHERE id = \$1`).
			WithArgs(item.ID, nil).
			WillReturnRows(sampleRow(pgxmock.NewRows(itemColumns), item, []byte(nil)))

		var cleared map[string]any
		got, err := repo.Update(ctx, item.ID, sitecontent.Set(sitecontent.FieldMetadata, cleared))
		require.NoError(t, err)
		assert.Nil(t, got.Metadata)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectQuery(`UPDATE content_items SET`).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Update(ctx, "ghost", sitecontent.Set(sitecontent.FieldTitle, "x"))
		assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the prior row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		item := sampleItem()

		mock.ExpectQuery(`DELETE FROM content_items WHERE id = \$1 RETURNING`).
			WithArgs(item.ID).
			WillReturnRows(sampleRow(pgxmock.NewRows(itemColumns), item, []byte(nil)))

		prior, err := repo.Delete(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.Slug, prior.Slug)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectQuery(`DELETE FROM content_items`).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Delete(ctx, "ghost")
		assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	})
}
