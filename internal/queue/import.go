package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/openlit/litmine/backend/internal/storage"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/ingest"
	"github.com/openlit/litmine/backend/pkg/logger"
)

// QueueImportMsg asks the worker to import one article into a scope, or
// with ScanScope set, every stored .txt object under the scope prefix.
// Content may be carried inline or referenced by its object storage key.
type QueueImportMsg struct {
	PMCID      string `json:"pmc_id"`
	Path       string `json:"path"`
	Title      string `json:"title"`
	Content    string `json:"content,omitempty"`
	ContentKey string `json:"content_key,omitempty"`
	ScanScope  bool   `json:"scan_scope,omitempty"`
	// FetchMetadata pulls bibliographic fields from the registry before
	// the article is stored.
	FetchMetadata bool `json:"fetch_metadata"`
}

func ProcessImportMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	orchestrator *ingest.Orchestrator,
	msg string,
) error {
	data := new(QueueImportMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	if data.ScanScope {
		return importScope(ctx, s3Client, orchestrator, data)
	}

	content := data.Content
	if content == "" && data.ContentKey != "" && s3Client != nil {
		loaded, err := storage.GetArticleText(ctx, s3Client, data.Path, data.ContentKey)
		if err != nil {
			return err
		}
		content = loaded
	}

	if data.FetchMetadata && data.PMCID != "" {
		id, created, err := orchestrator.FetchAndImport(ctx, data.PMCID, data.Path, content)
		if err != nil {
			return err
		}
		logger.Info("[Queue] Imported article from registry",
			"pmc_id", data.PMCID, "article", id, "created", created)
		return nil
	}

	article := &common.Article{
		PMCID:   data.PMCID,
		Title:   data.Title,
		Path:    data.Path,
		Content: content,
	}
	id, created, err := orchestrator.ImportArticle(ctx, article)
	if err != nil {
		return err
	}
	logger.Info("[Queue] Imported article",
		"pmc_id", data.PMCID, "article", id, "created", created)
	return nil
}

// importScope imports every stored .txt object under the scope prefix.
// The file stem is the accession number; the orchestrator's existence
// probe skips anything imported before, so re-running a scan is safe.
func importScope(
	ctx context.Context,
	s3Client *awss3.Client,
	orchestrator *ingest.Orchestrator,
	data *QueueImportMsg,
) error {
	if s3Client == nil {
		return fmt.Errorf("object storage is not configured")
	}

	keys, err := storage.ListScope(ctx, s3Client, data.Path)
	if err != nil {
		return err
	}

	var imported, skipped, failed int
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		stem, ok := strings.CutSuffix(path.Base(key), ".txt")
		if !ok {
			continue
		}

		content, err := storage.GetArticleText(ctx, s3Client, data.Path, stem)
		if err != nil {
			failed++
			logger.Error("[Queue] Failed to read stored text", "key", key, "error", err)
			continue
		}

		var created bool
		if data.FetchMetadata && strings.HasPrefix(stem, "PMC") {
			_, created, err = orchestrator.FetchAndImport(ctx, stem, data.Path, content)
		} else {
			_, created, err = orchestrator.ImportArticle(ctx, &common.Article{
				PMCID:   stem,
				Title:   stem,
				Path:    data.Path,
				Content: content,
			})
		}
		switch {
		case err != nil:
			failed++
			logger.Error("[Queue] Failed to import stored text", "key", key, "error", err)
		case created:
			imported++
		default:
			skipped++
		}
	}

	logger.Info("[Queue] Scope import finished",
		"path", data.Path, "imported", imported, "skipped", skipped, "failed", failed)
	return nil
}
