// Package export renders analysis runs as flat files: one CSV table or
// one SQL insert script, one row per triplet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
)

var csvHeader = []string{
	"article_id", "article_title", "path",
	"sentence_text", "subject", "relation", "object",
}

// WriteCSV flattens the runs into CSV, one row per triplet. Sentences
// without text are skipped and tallied, never fatal for the export.
func WriteCSV(w io.Writer, runs []common.AnalysisRun) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	skipped := 0
	for _, run := range runs {
		for _, sentence := range run.Sentences {
			if strings.TrimSpace(sentence.Text) == "" {
				skipped++
				continue
			}
			for _, triplet := range sentence.Triplets {
				record := []string{
					run.ArticleID, run.ArticleTitle, run.Path,
					sentence.Text, triplet.Subject, triplet.Relation, triplet.Object,
				}
				if err := writer.Write(record); err != nil {
					return fmt.Errorf("failed to write csv record: %w", err)
				}
			}
		}
	}
	if skipped > 0 {
		logger.Warn("[Export] Skipped sentences without text", "count", skipped)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteSQL renders the runs as an insert script for an external
// facts(article_id, article_title, path, sentence_text, subject,
// relation, object) table.
func WriteSQL(w io.Writer, runs []common.AnalysisRun) error {
	if _, err := io.WriteString(w,
		"CREATE TABLE IF NOT EXISTS facts (\n"+
			"\tarticle_id TEXT,\n\tarticle_title TEXT,\n\tpath TEXT,\n"+
			"\tsentence_text TEXT,\n\tsubject TEXT,\n\trelation TEXT,\n\tobject TEXT\n);\n",
	); err != nil {
		return fmt.Errorf("failed to write sql preamble: %w", err)
	}

	skipped := 0
	for _, run := range runs {
		for _, sentence := range run.Sentences {
			if strings.TrimSpace(sentence.Text) == "" {
				skipped++
				continue
			}
			for _, triplet := range sentence.Triplets {
				stmt := fmt.Sprintf(
					"INSERT INTO facts VALUES (%s, %s, %s, %s, %s, %s, %s);\n",
					quoteSQL(run.ArticleID), quoteSQL(run.ArticleTitle), quoteSQL(run.Path),
					quoteSQL(sentence.Text), quoteSQL(triplet.Subject),
					quoteSQL(triplet.Relation), quoteSQL(triplet.Object),
				)
				if _, err := io.WriteString(w, stmt); err != nil {
					return fmt.Errorf("failed to write sql statement: %w", err)
				}
			}
		}
	}
	if skipped > 0 {
		logger.Warn("[Export] Skipped sentences without text", "count", skipped)
	}
	return nil
}

func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
