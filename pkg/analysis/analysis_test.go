package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/openlit/litmine/backend/pkg/ai"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/nlp/openie"
	"github.com/openlit/litmine/backend/pkg/nlp/segment"
)

type fakeSegmenter struct {
	spans []segment.Span
	err   error
}

func (f *fakeSegmenter) SegmentSentences(_ context.Context, _ string) ([]segment.Span, error) {
	return f.spans, f.err
}

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	facts map[string][]openie.Fact
	fail  map[string]error
}

func (f *fakeExtractor) ExtractFacts(_ context.Context, sentence string, _ int, _ string) ([]openie.Fact, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err, ok := f.fail[sentence]; ok {
		return nil, err
	}
	return f.facts[sentence], nil
}

type fakeEmbedder struct {
	mu     sync.Mutex
	inputs []string
	err    error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, input []byte) ([]float32, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, string(input))
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }
func (f *fakeEmbedder) ResetMetrics()               {}

func newTestEngine(t *testing.T, seg Segmenter, ext FactExtractor, emb ai.EmbeddingClient) *Engine {
	t.Helper()
	engine, err := NewEngine(NewEngineParams{
		Segmenter:  seg,
		Extractor:  ext,
		Embedder:   emb,
		MaxRetries: 1,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func spansOf(texts ...string) []segment.Span {
	spans := make([]segment.Span, 0, len(texts))
	for _, text := range texts {
		spans = append(spans, segment.Span{Text: text})
	}
	return spans
}

func TestAnalyzeDropsSentencesWithoutFacts(t *testing.T) {
	seg := &fakeSegmenter{spans: spansOf(
		"The doctor treated the patient.",
		"However.",
	)}
	ext := &fakeExtractor{facts: map[string][]openie.Fact{
		"The doctor treated the patient.": {{Subject: "doctor", Relation: "treated", Object: "patient"}},
	}}
	emb := &fakeEmbedder{}

	engine := newTestEngine(t, seg, ext, emb)
	analyzed, err := engine.Analyze(context.Background(), "some content", ResourceHints{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analyzed) != 1 {
		t.Fatalf("expected 1 analyzed sentence, got %d", len(analyzed))
	}
	if analyzed[0].Text != "The doctor treated the patient." {
		t.Fatalf("unexpected sentence text: %q", analyzed[0].Text)
	}
	if len(analyzed[0].Triplets) != 1 {
		t.Fatalf("expected 1 triplet, got %d", len(analyzed[0].Triplets))
	}
	if analyzed[0].Triplets[0].Relation != "treated" {
		t.Fatalf("unexpected relation: %q", analyzed[0].Triplets[0].Relation)
	}
}

func TestAnalyzeEmbedsOnlyFactBearingSentences(t *testing.T) {
	seg := &fakeSegmenter{spans: spansOf("A treats B.", "Nothing here.")}
	ext := &fakeExtractor{facts: map[string][]openie.Fact{
		"A treats B.": {{Subject: "A", Relation: "treats", Object: "B"}},
	}}
	emb := &fakeEmbedder{}

	engine := newTestEngine(t, seg, ext, emb)
	analyzed, err := engine.Analyze(context.Background(), "content", ResourceHints{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(emb.inputs) != 1 {
		t.Fatalf("expected exactly 1 embedding call, got %d", len(emb.inputs))
	}
	if emb.inputs[0] != "A treats B." {
		t.Fatalf("embedded the wrong sentence: %q", emb.inputs[0])
	}
	if analyzed[0].Vector == nil {
		t.Fatal("expected sentence vector to be set")
	}
}

func TestAnalyzeKeepsSentenceWhenEmbeddingFails(t *testing.T) {
	seg := &fakeSegmenter{spans: spansOf("A treats B.")}
	ext := &fakeExtractor{facts: map[string][]openie.Fact{
		"A treats B.": {{Subject: "A", Relation: "treats", Object: "B"}},
	}}
	emb := &fakeEmbedder{err: errors.New("model unavailable")}

	engine := newTestEngine(t, seg, ext, emb)
	analyzed, err := engine.Analyze(context.Background(), "content", ResourceHints{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analyzed) != 1 {
		t.Fatalf("expected 1 analyzed sentence, got %d", len(analyzed))
	}
	if analyzed[0].Vector != nil {
		t.Fatal("expected nil vector after embedding failure")
	}
	if len(analyzed[0].Triplets) != 1 {
		t.Fatalf("expected triplets to survive embedding failure, got %d", len(analyzed[0].Triplets))
	}
}

func TestAnalyzeContinuesAfterExtractionFailure(t *testing.T) {
	seg := &fakeSegmenter{spans: spansOf("Bad sentence.", "A treats B.")}
	ext := &fakeExtractor{
		facts: map[string][]openie.Fact{
			"A treats B.": {{Subject: "A", Relation: "treats", Object: "B"}},
		},
		fail: map[string]error{
			"Bad sentence.": errors.New("annotator crashed"),
		},
	}
	emb := &fakeEmbedder{}

	engine := newTestEngine(t, seg, ext, emb)
	analyzed, err := engine.Analyze(context.Background(), "content", ResourceHints{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analyzed) != 1 {
		t.Fatalf("expected the surviving sentence only, got %d", len(analyzed))
	}
	if analyzed[0].Text != "A treats B." {
		t.Fatalf("unexpected survivor: %q", analyzed[0].Text)
	}
}

func TestAnalyzeSubstitutesSentinelForEmptySlots(t *testing.T) {
	seg := &fakeSegmenter{spans: spansOf("Mutation observed.")}
	ext := &fakeExtractor{facts: map[string][]openie.Fact{
		"Mutation observed.": {{Subject: "mutation", Relation: "", Object: "  "}},
	}}
	emb := &fakeEmbedder{}

	engine := newTestEngine(t, seg, ext, emb)
	analyzed, err := engine.Analyze(context.Background(), "content", ResourceHints{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	triplet := analyzed[0].Triplets[0]
	if triplet.Subject != "mutation" {
		t.Fatalf("unexpected subject: %q", triplet.Subject)
	}
	if triplet.Relation != common.Sentinel {
		t.Fatalf("expected sentinel relation, got %q", triplet.Relation)
	}
	if triplet.Object != common.Sentinel {
		t.Fatalf("expected sentinel object, got %q", triplet.Object)
	}
}

func TestAnalyzePreservesSegmentationOrder(t *testing.T) {
	texts := []string{
		"First treats one.",
		"Second treats two.",
		"Third treats three.",
		"Fourth treats four.",
	}
	facts := make(map[string][]openie.Fact, len(texts))
	for _, text := range texts {
		parts := strings.SplitN(text, " ", 3)
		facts[text] = []openie.Fact{{Subject: parts[0], Relation: parts[1], Object: parts[2]}}
	}

	seg := &fakeSegmenter{spans: spansOf(texts...)}
	ext := &fakeExtractor{facts: facts}
	emb := &fakeEmbedder{}

	engine := newTestEngine(t, seg, ext, emb)
	analyzed, err := engine.Analyze(context.Background(), "content", ResourceHints{Threads: 4})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analyzed) != len(texts) {
		t.Fatalf("expected %d sentences, got %d", len(texts), len(analyzed))
	}
	for i, sentence := range analyzed {
		if sentence.Text != texts[i] {
			t.Fatalf("order broken at %d: got %q, want %q", i, sentence.Text, texts[i])
		}
	}
}

func TestAnalyzeEmptyContent(t *testing.T) {
	seg := &fakeSegmenter{spans: spansOf("should never be used")}
	ext := &fakeExtractor{}
	emb := &fakeEmbedder{}

	engine := newTestEngine(t, seg, ext, emb)
	analyzed, err := engine.Analyze(context.Background(), "   \n\t", ResourceHints{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analyzed) != 0 {
		t.Fatalf("expected no sentences for blank content, got %d", len(analyzed))
	}
	if ext.calls != 0 {
		t.Fatalf("extractor should not have been called, got %d calls", ext.calls)
	}
}

func TestAnalyzeFailsWhenSegmentationFails(t *testing.T) {
	seg := &fakeSegmenter{err: errors.New("segmenter down")}
	engine := newTestEngine(t, seg, &fakeExtractor{}, &fakeEmbedder{})

	if _, err := engine.Analyze(context.Background(), "content", ResourceHints{}); err == nil {
		t.Fatal("expected an error when segmentation fails")
	}
}

func TestResourceHintsDefaults(t *testing.T) {
	hints := ResourceHints{}.WithDefaults()
	if hints.Threads != defaultThreads {
		t.Fatalf("expected default threads %d, got %d", defaultThreads, hints.Threads)
	}
	if hints.Memory != defaultMemory {
		t.Fatalf("expected default memory %q, got %q", defaultMemory, hints.Memory)
	}

	custom := ResourceHints{Threads: 8, Memory: "12G"}.WithDefaults()
	if custom.Threads != 8 || custom.Memory != "12G" {
		t.Fatalf("defaults overwrote explicit hints: %+v", custom)
	}
}

func TestResourceHintsValidate(t *testing.T) {
	if err := (ResourceHints{Threads: -1}).Validate(); err == nil {
		t.Fatal("expected negative threads to be rejected")
	}
	if err := (ResourceHints{Threads: 2, Memory: "4G"}).Validate(); err != nil {
		t.Fatalf("valid hints rejected: %v", err)
	}
}

func TestAnalyzeTwoSentenceDocument(t *testing.T) {
	seg := &fakeSegmenter{spans: spansOf(
		"The doctor read the file.",
		"The patient is sick.",
	)}
	ext := &fakeExtractor{facts: map[string][]openie.Fact{
		"The doctor read the file.": {{Subject: "doctor", Relation: "read", Object: "file"}},
		"The patient is sick.":      {{Subject: "patient", Relation: "is", Object: "sick"}},
	}}
	emb := &fakeEmbedder{}
	engine := newTestEngine(t, seg, ext, emb)

	sentences, err := engine.Analyze(context.Background(),
		"The doctor read the file. The patient is sick.", ResourceHints{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sentences))
	}
	for i, sentence := range sentences {
		if len(sentence.Triplets) != 1 {
			t.Fatalf("sentence %d: expected 1 triplet, got %d", i, len(sentence.Triplets))
		}
		if sentence.Vector == nil {
			t.Fatalf("sentence %d: expected an embedding vector", i)
		}
	}
	if sentences[0].Triplets[0].Subject != "doctor" || sentences[1].Triplets[0].Object != "sick" {
		t.Fatalf("triplets out of order: %+v", sentences)
	}
}
