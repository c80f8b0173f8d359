package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

const articleColumns = `
	public_id, pmc_id, title, authors, journal, abstract,
	doi, issn, year, volume, issue, pages, url, content, path, embedding
`

// CreateArticle embeds the article content and inserts the row. A failed
// embedding is logged and leaves the vector null; the article is stored
// either way. Returns the article's public ID.
func (s *DBStorage) CreateArticle(ctx context.Context, article *common.Article) (string, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return "", err
	}

	if article.PublicID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return "", fmt.Errorf("failed to generate article id: %w", err)
		}
		article.PublicID = id
	}

	embedding, err := s.embedContent(ctx, article.Content)
	if err != nil {
		logger.Warn("[Store] Failed to embed article content, storing without vector",
			"article", article.PublicID, "error", err)
		embedding = nil
	}
	article.Vector = embedding

	_, err = s.conn.Exec(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		article.PublicID, nullable(article.PMCID), article.Title, article.Authors,
		article.Journal, article.Abstract, article.DOI, article.ISSN, article.Year,
		article.Volume, article.Issue, article.Pages, article.URL, article.Content,
		article.Path, vectorOrNil(embedding),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert article: %w", err)
	}
	return article.PublicID, nil
}

func (s *DBStorage) GetArticle(ctx context.Context, publicID string) (*common.Article, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE public_id = $1
	`, publicID)
	return scanArticle(row)
}

func (s *DBStorage) GetArticleByPMCID(ctx context.Context, pmcID string) (*common.Article, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE pmc_id = $1
	`, pmcID)
	return scanArticle(row)
}

// ExistsPMCID probes for an article with the given accession number.
func (s *DBStorage) ExistsPMCID(ctx context.Context, pmcID string) (bool, error) {
	if strings.TrimSpace(pmcID) == "" {
		return false, nil
	}
	var exists bool
	err := s.conn.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM articles WHERE pmc_id = $1)
	`, pmcID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pmc id: %w", err)
	}
	return exists, nil
}

// UpdateArticle replaces the stored article fields and re-embeds the
// content, since the vector must track what is actually stored.
func (s *DBStorage) UpdateArticle(ctx context.Context, article *common.Article) error {
	embedding, err := s.embedContent(ctx, article.Content)
	if err != nil {
		logger.Warn("[Store] Failed to re-embed article content, clearing vector",
			"article", article.PublicID, "error", err)
		embedding = nil
	}
	article.Vector = embedding

	tag, err := s.conn.Exec(ctx, `
		UPDATE articles
		SET pmc_id = $2, title = $3, authors = $4, journal = $5, abstract = $6,
			doi = $7, issn = $8, year = $9, volume = $10, issue = $11,
			pages = $12, url = $13, content = $14, path = $15, embedding = $16
		WHERE public_id = $1
	`,
		article.PublicID, nullable(article.PMCID), article.Title, article.Authors,
		article.Journal, article.Abstract, article.DOI, article.ISSN, article.Year,
		article.Volume, article.Issue, article.Pages, article.URL, article.Content,
		article.Path, vectorOrNil(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteArticle removes the article and, through the schema's cascade,
// every analysis run derived from it.
func (s *DBStorage) DeleteArticle(ctx context.Context, publicID string) error {
	tag, err := s.conn.Exec(ctx, `
		DELETE FROM articles WHERE public_id = $1
	`, publicID)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// QueryArticles lists articles under the filter, newest first, one page
// at a time.
func (s *DBStorage) QueryArticles(
	ctx context.Context,
	filter store.ArticleFilter,
	page store.PageRequest,
) ([]common.Article, *common.PageInfo, error) {
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.Size <= 0 {
		page.Size = 10
	}

	where, args := buildArticleFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM articles` + where
	if err := s.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, nil, fmt.Errorf("failed to count articles: %w", err)
	}

	offset := (page.Page - 1) * page.Size
	listQuery := fmt.Sprintf(`
		SELECT `+articleColumns+`
		FROM articles
		%s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, page.Size, offset)

	rows, err := s.conn.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]common.Article, 0, page.Size)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			logger.Warn("[Store] Skipping malformed article row", "error", err)
			continue
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read articles: %w", err)
	}

	info := common.NewPageInfo(total, page.Size, page.Page)
	return articles, &info, nil
}

func (s *DBStorage) CountArticles(ctx context.Context, path string) (int64, error) {
	query := `SELECT COUNT(*) FROM articles`
	args := []any{}
	if path != "" {
		query += ` WHERE path = $1`
		args = append(args, path)
	}
	var count int64
	if err := s.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// SearchArticlesByVector ranks the candidates closest to the query vector
// by L2 distance and returns the topK best within the given scope. The
// candidate pool bounds how much of the index the ranking may touch.
func (s *DBStorage) SearchArticlesByVector(
	ctx context.Context,
	vector []float32,
	path string,
	topK, candidates int,
) ([]common.Article, error) {
	embed := pgvector.NewVector(vector)

	rows, err := s.conn.Query(ctx, `
		SELECT `+articleColumns+`
		FROM (
			SELECT *
			FROM articles
			WHERE path = $1 AND embedding IS NOT NULL
			ORDER BY embedding <-> $2
			LIMIT $3
		) candidates
		ORDER BY embedding <-> $2
		LIMIT $4
	`, path, embed, candidates, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	articles := make([]common.Article, 0, topK)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			logger.Warn("[Store] Skipping malformed article row", "error", err)
			continue
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}
	return articles, nil
}

func buildArticleFilter(filter store.ArticleFilter) (string, []any) {
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.Path != "" {
		args = append(args, filter.Path)
		clauses = append(clauses, fmt.Sprintf("path = $%d", len(args)))
	}
	if filter.Title != "" {
		args = append(args, "%"+filter.Title+"%")
		clauses = append(clauses, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanArticle(row pgx.Row) (*common.Article, error) {
	var (
		article common.Article
		pmcID   *string
		embed   *pgvector.Vector
	)
	err := row.Scan(
		&article.PublicID, &pmcID, &article.Title, &article.Authors,
		&article.Journal, &article.Abstract, &article.DOI, &article.ISSN,
		&article.Year, &article.Volume, &article.Issue, &article.Pages,
		&article.URL, &article.Content, &article.Path, &embed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	if pmcID != nil {
		article.PMCID = *pmcID
	}
	if embed != nil {
		article.Vector = embed.Slice()
	}
	return &article, nil
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func vectorOrNil(embedding []float32) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}
