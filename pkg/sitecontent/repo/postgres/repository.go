package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

const backendName = "postgres"

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

const selectColumns = `id, type, title, slug, content, metadata, status, created_at, updated_at`

// columns maps item fields to content_items columns. Fields missing here
// cannot be filtered on.
var columns = map[sitecontent.Field]string{
	sitecontent.FieldID:        "id",
	sitecontent.FieldType:      "type",
	sitecontent.FieldTitle:     "title",
	sitecontent.FieldSlug:      "slug",
	sitecontent.FieldStatus:    "status",
	sitecontent.FieldCreatedAt: "created_at",
	sitecontent.FieldUpdatedAt: "updated_at",
	sitecontent.FieldContent:   "content",
	sitecontent.FieldMetadata:  "metadata",
}

// Repository implements sitecontent.Repository using PostgreSQL
type Repository struct {
	db     DBTX
	logger *zap.Logger
}

// Option configures the repository
type Option func(*Repository)

// WithLogger sets the logger used for query failures
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// New creates a new PostgreSQL repository
func New(db DBTX, opts ...Option) sitecontent.Repository {
	r := &Repository{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool, opts ...Option) sitecontent.Repository {
	return New(pool, opts...)
}

// Error handling helper
func (r *Repository) handlePostgresError(operation, key string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", sitecontent.ErrDuplicateKey, key)
		case "23502": // not_null_violation
			err = fmt.Errorf("required column %s is missing: %w", pgErr.ColumnName, err)
		case "42P01": // undefined_table
			err = fmt.Errorf("table does not exist - database migration required: %w", err)
		}
	}

	r.logger.Error("postgres operation failed",
		zap.String("op", operation),
		zap.String("key", key),
		zap.Error(err))

	return &sitecontent.StorageError{Backend: backendName, Op: operation, Key: key, Err: err}
}

func (r *Repository) PutIfAbsent(ctx context.Context, item *sitecontent.Item) error {
	content, metadata, err := encodeDocuments(item)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO content_items (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		item.ID, string(item.Type), item.Title, item.Slug,
		content, metadata, string(item.Status), item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("put", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", sitecontent.ErrDuplicateKey, item.ID)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*sitecontent.Item, error) {
	query := `SELECT ` + selectColumns + ` FROM content_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sitecontent.ErrNotFound
	}
	if err != nil {
		return nil, r.handlePostgresError("get", id, err)
	}
	return item, nil
}

func (r *Repository) Scan(ctx context.Context, filter sitecontent.Filter) ([]*sitecontent.Item, error) {
	where, args, err := buildWhereClause(filter)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + selectColumns + ` FROM content_items` + where + ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("scan", "", err)
	}
	defer rows.Close()

	items := make([]*sitecontent.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan", "", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("scan", "", err)
	}
	return items, nil
}

func (r *Repository) Update(ctx context.Context, id string, set sitecontent.Assignments) (*sitecontent.Item, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return r.Get(ctx, id)
	}

	clauses := make([]string, 0, set.Len())
	args := []any{id}
	for _, a := range set.Items() {
		value, err := columnValue(a)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", columns[a.Field], len(args)))
	}

	query := `UPDATE content_items SET ` + strings.Join(clauses, ", ") +
		` WHERE id = $1 RETURNING ` + selectColumns

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sitecontent.ErrNotFound
	}
	if err != nil {
		return nil, r.handlePostgresError("update", id, err)
	}
	return item, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (*sitecontent.Item, error) {
	query := `DELETE FROM content_items WHERE id = $1 RETURNING ` + selectColumns

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sitecontent.ErrNotFound
	}
	if err != nil {
		return nil, r.handlePostgresError("delete", id, err)
	}
	return item, nil
}

func buildWhereClause(filter sitecontent.Filter) (string, []any, error) {
	preds := filter.Predicates()
	if len(preds) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		col, ok := columns[p.Field]
		if !ok || p.Field == sitecontent.FieldContent || p.Field == sitecontent.FieldMetadata {
			return "", nil, fmt.Errorf("cannot filter on field %s", p.Field)
		}
		args = append(args, p.Value)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func columnValue(a sitecontent.Assignment) (any, error) {
	switch v := a.Value.(type) {
	case map[string]any:
		if v == nil {
			return nil, nil
		}
		return json.Marshal(v)
	case nil:
		return nil, nil
	case sitecontent.ContentType:
		return string(v), nil
	case sitecontent.ContentStatus:
		return string(v), nil
	default:
		return v, nil
	}
}

func encodeDocuments(item *sitecontent.Item) ([]byte, []byte, error) {
	content, err := json.Marshal(item.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("encode content: %w", err)
	}
	var metadata []byte
	if item.Metadata != nil {
		metadata, err = json.Marshal(item.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("encode metadata: %w", err)
		}
	}
	return content, metadata, nil
}

func scanItem(row pgx.Row) (*sitecontent.Item, error) {
	var (
		item              sitecontent.Item
		typ, status       string
		content, metadata []byte
	)
	err := row.Scan(&item.ID, &typ, &item.Title, &item.Slug, &content, &metadata,
		&status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.Type = sitecontent.ContentType(typ)
	item.Status = sitecontent.ContentStatus(status)
	if err := json.Unmarshal(content, &item.Content); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &item, nil
}
