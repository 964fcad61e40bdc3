package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"golazo/internal/config"
	"golazo/internal/domain"
	"golazo/internal/ports"
)

// ErrDuplicateRef reports an insert that hit the raw-import uniqueness
// guarantee. Callers treat it as "already imported", not as a failure.
var ErrDuplicateRef = errors.New("source ref already exists")

// ErrNotFound reports a missing or deleted article.
var ErrNotFound = errors.New("article not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists articles into Postgres.
type PostgresRepository struct {
	db *sqlx.DB
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires an sqlx handle.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects to Postgres, verifies the connection and runs migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// buildDSN folds the TLS settings into the connection URL. A pinned CA
// cert implies full verification unless the URL already picks a mode;
// the insecure flag forces encrypted-but-unverified connections.
func buildDSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.CACertPath == "" && !cfg.SSLInsecure {
		return cfg.URL, nil
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" {
		return "", fmt.Errorf("database url must be a postgres:// URL when TLS options are set")
	}

	query := parsed.Query()
	if cfg.CACertPath != "" {
		query.Set("sslrootcert", cfg.CACertPath)
		if query.Get("sslmode") == "" {
			query.Set("sslmode", "verify-full")
		}
	}
	if cfg.SSLInsecure {
		query.Set("sslmode", "require")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

type articleRow struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	ImageURL  string    `db:"image_url"`
	SourceRef string    `db:"source_ref"`
	Origin    string    `db:"origin"`
	PubDate   time.Time `db:"pub_date"`
	CreatedAt time.Time `db:"created_at"`
	Deleted   bool      `db:"deleted"`
}

func (r articleRow) toDomain() domain.Article {
	return domain.Article{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		ImageURL:  r.ImageURL,
		SourceRef: r.SourceRef,
		Origin:    domain.Origin(r.Origin),
		PubDate:   r.PubDate,
		CreatedAt: r.CreatedAt,
		Deleted:   r.Deleted,
	}
}

// ExistingRefs returns which of the given refs already have a row.
// Soft-deleted rows count: deletion is sticky, so a deleted article is
// never regenerated or re-imported, and the answer matches what the
// rss unique index would enforce on insert.
func (r *PostgresRepository) ExistingRefs(ctx context.Context, refs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(refs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT source_ref FROM articles WHERE source_ref = ANY($1)`,
		pq.StringArray(refs))
	if err != nil {
		return nil, fmt.Errorf("query existing refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan ref: %w", err)
		}
		result[ref] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// Insert stores an article and returns it with ID and CreatedAt set.
// A unique-index conflict surfaces as ErrDuplicateRef.
func (r *PostgresRepository) Insert(ctx context.Context, article domain.Article) (domain.Article, error) {
	query, args, err := psql.Insert("articles").
		Columns("title", "content", "image_url", "source_ref", "origin", "pub_date").
		Values(article.Title, article.Content, article.ImageURL,
			article.SourceRef, string(article.Origin), article.PubDate).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build insert: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&article.ID, &article.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.Article{}, ErrDuplicateRef
		}
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}

	return article, nil
}

// GetByID fetches one live article.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (domain.Article, error) {
	var row articleRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, title, content, image_url, source_ref, origin, pub_date, created_at, deleted
		 FROM articles WHERE id = $1 AND NOT deleted`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// List returns live articles newest first, optionally filtered by origin.
func (r *PostgresRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Article, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	builder := psql.
		Select("id", "title", "content", "image_url", "source_ref", "origin",
			"pub_date", "created_at", "deleted").
		From("articles").
		Where(sq.Eq{"deleted": false}).
		OrderBy("pub_date DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	if filter.Origin != "" {
		builder = builder.Where(sq.Eq{"origin": string(filter.Origin)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	articles := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, row.toDomain())
	}
	return articles, nil
}

// SoftDelete flags an article; rows are never physically removed.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE articles SET deleted = TRUE WHERE id = $1 AND NOT deleted`, id)
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
