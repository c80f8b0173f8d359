// Package analysis turns raw article text into analyzed sentences with
// subject-relation-object triplets and sentence embeddings.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/openlit/litmine/backend/internal/util"
	"github.com/openlit/litmine/backend/pkg/ai"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/nlp/openie"
	"github.com/openlit/litmine/backend/pkg/nlp/segment"
)

// Segmenter splits article text into ordered sentence spans.
type Segmenter interface {
	SegmentSentences(ctx context.Context, text string) ([]segment.Span, error)
}

// FactExtractor pulls open-domain triplets out of a single sentence.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, sentence string, threads int, memory string) ([]openie.Fact, error)
}

// Engine runs the sentence-level analysis pipeline: segment, extract
// facts per sentence, embed the sentences that carry facts.
type Engine struct {
	segmenter  Segmenter
	extractor  FactExtractor
	embedder   ai.EmbeddingClient
	maxRetries int
}

type NewEngineParams struct {
	Segmenter  Segmenter
	Extractor  FactExtractor
	Embedder   ai.EmbeddingClient
	MaxRetries int
}

func NewEngine(params NewEngineParams) (*Engine, error) {
	if params.Segmenter == nil {
		return nil, fmt.Errorf("segmenter is required")
	}
	if params.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if params.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if params.MaxRetries <= 0 {
		params.MaxRetries = 3
	}
	return &Engine{
		segmenter:  params.Segmenter,
		extractor:  params.Extractor,
		embedder:   params.Embedder,
		maxRetries: params.MaxRetries,
	}, nil
}

// Analyze segments the content and extracts facts from each sentence
// concurrently, up to hints.Threads at a time. Sentences that yield no
// triplets are dropped. Each surviving sentence is embedded exactly
// once; a failed embedding leaves the vector nil but keeps the
// sentence. A failed extraction is logged and counts as zero facts, so
// one bad sentence never sinks the rest of the article. The returned
// slice preserves segmentation order.
func (e *Engine) Analyze(ctx context.Context, content string, hints ResourceHints) ([]common.AnalyzedSentence, error) {
	if err := hints.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resource hints: %w", err)
	}
	hints = hints.WithDefaults()

	if strings.TrimSpace(content) == "" {
		return []common.AnalyzedSentence{}, nil
	}

	spans, err := e.segmenter.SegmentSentences(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to segment content: %w", err)
	}

	results := make([]*common.AnalyzedSentence, len(spans))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(hints.Threads)

	for i, span := range spans {
		idx, sp := i, span
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			results[idx] = e.analyzeSentence(gCtx, sp.Text, hints)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	analyzed := make([]common.AnalyzedSentence, 0, len(results))
	for _, r := range results {
		if r != nil {
			analyzed = append(analyzed, *r)
		}
	}
	return analyzed, nil
}

// analyzeSentence returns nil when the sentence yields no triplets.
func (e *Engine) analyzeSentence(ctx context.Context, text string, hints ResourceHints) *common.AnalyzedSentence {
	if strings.TrimSpace(text) == "" {
		text = common.Sentinel
	}

	facts, err := util.RetryWithContext(ctx, e.maxRetries, func(ctx context.Context) ([]openie.Fact, error) {
		return e.extractor.ExtractFacts(ctx, text, hints.Threads, hints.Memory)
	})
	if err != nil {
		logger.Warn("[Analysis] Fact extraction failed, keeping zero facts for sentence", "error", err)
		return nil
	}
	if len(facts) == 0 {
		return nil
	}

	triplets := make([]common.Triplet, 0, len(facts))
	for _, f := range facts {
		triplets = append(triplets, common.Triplet{
			Subject:  orSentinel(f.Subject),
			Relation: orSentinel(f.Relation),
			Object:   orSentinel(f.Object),
		})
	}

	sentence := &common.AnalyzedSentence{
		Text:     text,
		Triplets: triplets,
	}

	vector, err := e.embedder.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		logger.Warn("[Analysis] Embedding failed, keeping sentence without vector", "error", err)
		vector = nil
	}
	sentence.Vector = vector

	return sentence
}

func orSentinel(s string) string {
	if strings.TrimSpace(s) == "" {
		return common.Sentinel
	}
	return s
}
