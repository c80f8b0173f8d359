package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/openlit/litmine/backend/pkg/common"
)

func TestChunkRange(t *testing.T) {
	var chunks [][2]int
	err := ChunkRange(10, 4, func(start, end int) error {
		chunks = append(chunks, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("ChunkRange failed: %v", err)
	}
	want := [][2]int{{0, 4}, {4, 8}, {8, 10}}
	if !reflect.DeepEqual(chunks, want) {
		t.Fatalf("unexpected chunks: got %v, want %v", chunks, want)
	}
}

func TestChunkRangeEmpty(t *testing.T) {
	called := false
	if err := ChunkRange(0, 4, func(start, end int) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("ChunkRange failed: %v", err)
	}
	if called {
		t.Fatal("callback should not run for an empty range")
	}
}

func TestChunkRangeStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := ChunkRange(10, 2, func(start, end int) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls before stopping, got %d", calls)
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"a", "", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected dedupe result: got %v, want %v", got, want)
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int
		pageSize   int
		page       int
		wantPages  int
	}{
		{"exact fit", 20, 10, 1, 2},
		{"remainder rounds up", 21, 10, 1, 3},
		{"single partial page", 3, 10, 1, 1},
		{"empty", 0, 10, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := common.NewPageInfo(tt.totalItems, tt.pageSize, tt.page)
			if info.TotalPages != tt.wantPages {
				t.Fatalf("TotalPages: got %d, want %d", info.TotalPages, tt.wantPages)
			}
			if info.TotalItems != tt.totalItems {
				t.Fatalf("TotalItems: got %d, want %d", info.TotalItems, tt.totalItems)
			}
			if info.CurrentPage != tt.page {
				t.Fatalf("CurrentPage: got %d, want %d", info.CurrentPage, tt.page)
			}
		})
	}
}
