package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

// IndexRun persists one analysis run with every sentence and triplet in a
// single transaction. Sentence and triplet positions record segmentation
// order so reads can reconstruct the run exactly.
func (s *DBStorage) IndexRun(ctx context.Context, run *common.AnalysisRun) (string, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return "", err
	}

	if run.PublicID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return "", fmt.Errorf("failed to generate run id: %w", err)
		}
		run.PublicID = id
	}

	logger.Debug("[Store] Indexing analysis run",
		"run", run.PublicID, "article", run.ArticleID, "sentences", len(run.Sentences))

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO analysis_runs (public_id, article_id, article_title, path)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, run.PublicID, run.ArticleID, run.ArticleTitle, run.Path).Scan(&runID)
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis run: %w", err)
	}

	sentenceIDs := make([]int64, len(run.Sentences))
	for i, sentence := range run.Sentences {
		err = tx.QueryRow(ctx, `
			INSERT INTO analyzed_sentences (run_id, position, sentence_text, embedding)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, runID, i, sentence.Text, vectorOrNil(sentence.Vector)).Scan(&sentenceIDs[i])
		if err != nil {
			return "", fmt.Errorf("failed to insert sentence %d: %w", i, err)
		}
	}

	type tripletRow struct {
		sentenceID int64
		position   int
		triplet    common.Triplet
	}
	flat := make([]tripletRow, 0, run.TripletCount())
	for i, sentence := range run.Sentences {
		for j, triplet := range sentence.Triplets {
			flat = append(flat, tripletRow{sentenceID: sentenceIDs[i], position: j, triplet: triplet})
		}
	}

	err = store.ChunkRange(len(flat), insertChunkSize, func(start, end int) error {
		count := end - start
		sentenceRefs := make([]int64, 0, count)
		positions := make([]int32, 0, count)
		subjects := make([]string, 0, count)
		relations := make([]string, 0, count)
		objects := make([]string, 0, count)
		for _, row := range flat[start:end] {
			sentenceRefs = append(sentenceRefs, row.sentenceID)
			positions = append(positions, int32(row.position))
			subjects = append(subjects, row.triplet.Subject)
			relations = append(relations, row.triplet.Relation)
			objects = append(objects, row.triplet.Object)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO triplets (sentence_id, position, subject, relation, object)
			SELECT unnest($1::bigint[]), unnest($2::int[]),
				unnest($3::text[]), unnest($4::text[]), unnest($5::text[])
		`, sentenceRefs, positions, subjects, relations, objects)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert triplets: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit analysis run: %w", err)
	}
	return run.PublicID, nil
}

// GetRunByArticleID returns the most recent analysis run for the article,
// or store.ErrNotFound when the article has never been analyzed.
func (s *DBStorage) GetRunByArticleID(ctx context.Context, articleID string) (*common.AnalysisRun, error) {
	var (
		runID int64
		run   common.AnalysisRun
	)
	err := s.conn.QueryRow(ctx, `
		SELECT id, public_id, article_id, article_title, path
		FROM analysis_runs
		WHERE article_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, articleID).Scan(&runID, &run.PublicID, &run.ArticleID, &run.ArticleTitle, &run.Path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query analysis run: %w", err)
	}

	sentences, err := s.loadSentences(ctx, []int64{runID})
	if err != nil {
		return nil, err
	}
	run.Sentences = sentences[runID]
	return &run, nil
}

// GetAllRuns returns every analysis run in the scope, unpaginated.
func (s *DBStorage) GetAllRuns(ctx context.Context, path string) ([]common.AnalysisRun, error) {
	runs, _, err := s.queryRuns(ctx, path, 0, 0)
	return runs, err
}

// GetRunsPage returns one page of analysis runs in the scope together
// with pagination metadata computed from the scope's total count.
func (s *DBStorage) GetRunsPage(
	ctx context.Context,
	path string,
	page store.PageRequest,
) ([]common.AnalysisRun, *common.PageInfo, error) {
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.Size <= 0 {
		page.Size = 10
	}

	runs, total, err := s.queryRuns(ctx, path, page.Size, (page.Page-1)*page.Size)
	if err != nil {
		return nil, nil, err
	}
	info := common.NewPageInfo(total, page.Size, page.Page)
	return runs, &info, nil
}

func (s *DBStorage) queryRuns(ctx context.Context, path string, limit, offset int) ([]common.AnalysisRun, int, error) {
	where := ""
	args := []any{}
	if path != "" {
		where = " WHERE path = $1"
		args = append(args, path)
	}

	var total int
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM analysis_runs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count analysis runs: %w", err)
	}

	query := `
		SELECT id, public_id, article_id, article_title, path
		FROM analysis_runs` + where + `
		ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	runs := make([]common.AnalysisRun, 0)
	runIDs := make([]int64, 0)
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			runID int64
			run   common.AnalysisRun
		)
		if err := rows.Scan(&runID, &run.PublicID, &run.ArticleID, &run.ArticleTitle, &run.Path); err != nil {
			logger.Warn("[Store] Skipping malformed analysis run row", "error", err)
			continue
		}
		byID[runID] = len(runs)
		runs = append(runs, run)
		runIDs = append(runIDs, runID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read analysis runs: %w", err)
	}

	sentences, err := s.loadSentences(ctx, runIDs)
	if err != nil {
		return nil, 0, err
	}
	for runID, idx := range byID {
		runs[idx].Sentences = sentences[runID]
	}

	return runs, total, nil
}

// loadSentences fetches the sentences and triplets for a set of runs in
// two queries and stitches them together in stored position order.
func (s *DBStorage) loadSentences(ctx context.Context, runIDs []int64) (map[int64][]common.AnalyzedSentence, error) {
	out := make(map[int64][]common.AnalyzedSentence, len(runIDs))
	if len(runIDs) == 0 {
		return out, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, run_id, sentence_text, embedding
		FROM analyzed_sentences
		WHERE run_id = ANY($1)
		ORDER BY run_id, position
	`, runIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentences: %w", err)
	}
	defer rows.Close()

	sentenceIDs := make([]int64, 0)
	bySentence := make(map[int64]*common.AnalyzedSentence)
	order := make(map[int64][]int64, len(runIDs))
	for rows.Next() {
		var (
			sentenceID int64
			runID      int64
			sentence   common.AnalyzedSentence
			embed      *pgvector.Vector
		)
		if err := rows.Scan(&sentenceID, &runID, &sentence.Text, &embed); err != nil {
			logger.Warn("[Store] Skipping malformed sentence row", "error", err)
			continue
		}
		if embed != nil {
			sentence.Vector = embed.Slice()
		}
		bySentence[sentenceID] = &sentence
		order[runID] = append(order[runID], sentenceID)
		sentenceIDs = append(sentenceIDs, sentenceID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sentences: %w", err)
	}

	if len(sentenceIDs) > 0 {
		tripletRows, err := s.conn.Query(ctx, `
			SELECT sentence_id, subject, relation, object
			FROM triplets
			WHERE sentence_id = ANY($1)
			ORDER BY sentence_id, position
		`, sentenceIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to query triplets: %w", err)
		}
		defer tripletRows.Close()

		for tripletRows.Next() {
			var (
				sentenceID int64
				triplet    common.Triplet
			)
			if err := tripletRows.Scan(&sentenceID, &triplet.Subject, &triplet.Relation, &triplet.Object); err != nil {
				logger.Warn("[Store] Skipping malformed triplet row", "error", err)
				continue
			}
			if sentence, ok := bySentence[sentenceID]; ok {
				sentence.Triplets = append(sentence.Triplets, triplet)
			}
		}
		if err := tripletRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read triplets: %w", err)
		}
	}

	for runID, ids := range order {
		sentences := make([]common.AnalyzedSentence, 0, len(ids))
		for _, id := range ids {
			sentences = append(sentences, *bySentence[id])
		}
		out[runID] = sentences
	}
	return out, nil
}

// SearchSentencesByVector ranks analyzed sentences in the scope by L2
// distance to the query vector, bounded by the candidate pool, and
// returns the topK closest with their triplets attached.
func (s *DBStorage) SearchSentencesByVector(
	ctx context.Context,
	vector []float32,
	path string,
	topK, candidates int,
) ([]store.SentenceHit, error) {
	embed := pgvector.NewVector(vector)

	rows, err := s.conn.Query(ctx, `
		SELECT id, article_id, sentence_text, embedding
		FROM (
			SELECT s.id, r.article_id, s.sentence_text, s.embedding
			FROM analyzed_sentences s
			JOIN analysis_runs r ON r.id = s.run_id
			WHERE r.path = $1 AND s.embedding IS NOT NULL
			ORDER BY s.embedding <-> $2
			LIMIT $3
		) candidates
		ORDER BY embedding <-> $2
		LIMIT $4
	`, path, embed, candidates, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search sentences: %w", err)
	}
	defer rows.Close()

	sentenceIDs := make([]int64, 0, topK)
	bySentence := make(map[int64]*store.SentenceHit, topK)
	ordered := make([]*store.SentenceHit, 0, topK)
	for rows.Next() {
		var (
			sentenceID int64
			hit        store.SentenceHit
			embedded   *pgvector.Vector
		)
		if err := rows.Scan(&sentenceID, &hit.ArticleID, &hit.Sentence.Text, &embedded); err != nil {
			logger.Warn("[Store] Skipping malformed sentence row", "error", err)
			continue
		}
		if embedded != nil {
			hit.Sentence.Vector = embedded.Slice()
		}
		ptr := &hit
		bySentence[sentenceID] = ptr
		ordered = append(ordered, ptr)
		sentenceIDs = append(sentenceIDs, sentenceID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	if len(sentenceIDs) > 0 {
		tripletRows, err := s.conn.Query(ctx, `
			SELECT sentence_id, subject, relation, object
			FROM triplets
			WHERE sentence_id = ANY($1)
			ORDER BY sentence_id, position
		`, sentenceIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to query triplets: %w", err)
		}
		defer tripletRows.Close()

		for tripletRows.Next() {
			var (
				sentenceID int64
				triplet    common.Triplet
			)
			if err := tripletRows.Scan(&sentenceID, &triplet.Subject, &triplet.Relation, &triplet.Object); err != nil {
				logger.Warn("[Store] Skipping malformed triplet row", "error", err)
				continue
			}
			if hit, ok := bySentence[sentenceID]; ok {
				hit.Sentence.Triplets = append(hit.Sentence.Triplets, triplet)
			}
		}
		if err := tripletRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read triplets: %w", err)
		}
	}

	results := make([]store.SentenceHit, 0, len(ordered))
	for _, hit := range ordered {
		results = append(results, *hit)
	}
	return results, nil
}

// CountTriplets tallies stored triplets, optionally scoped to one path.
func (s *DBStorage) CountTriplets(ctx context.Context, path string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM triplets t
		JOIN analyzed_sentences s ON s.id = t.sentence_id
		JOIN analysis_runs r ON r.id = s.run_id`
	args := []any{}
	if path != "" {
		query += ` WHERE r.path = $1`
		args = append(args, path)
	}
	var count int64
	if err := s.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count triplets: %w", err)
	}
	return count, nil
}
