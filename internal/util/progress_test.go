package util

import "testing"

func TestBatchProgressDescribe(t *testing.T) {
	p := NewBatchProgress(10)
	p.Analyzed = 3
	p.Reused = 2
	p.Failed = 1

	if got := p.Done(); got != 6 {
		t.Fatalf("expected 6 done, got %d", got)
	}
	if got := p.Describe(); got != "analyzed 6 of 10" {
		t.Fatalf("unexpected description: %q", got)
	}
}

func TestBatchProgressPercentage(t *testing.T) {
	p := NewBatchProgress(4)
	if got := p.Percentage(); got != 0 {
		t.Fatalf("expected 0%%, got %d", got)
	}

	p.Analyzed = 2
	if got := p.Percentage(); got != 50 {
		t.Fatalf("expected 50%%, got %d", got)
	}

	p.Analyzed = 4
	if got := p.Percentage(); got != 100 {
		t.Fatalf("expected 100%%, got %d", got)
	}
}

func TestBatchProgressEmptyBatch(t *testing.T) {
	p := NewBatchProgress(0)
	if got := p.Percentage(); got != 0 {
		t.Fatalf("expected 0%% for an empty batch, got %d", got)
	}
	if got := p.Describe(); got != "analyzed 0 of 0" {
		t.Fatalf("unexpected description: %q", got)
	}
}
