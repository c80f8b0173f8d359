package analysis

import "fmt"

const (
	defaultThreads = 4
	defaultMemory  = "6G"
)

// ResourceHints bounds the resources handed to the fact extraction service
// for one analysis request. The hints are forwarded to the annotator
// unmodified; zero values take the defaults below.
type ResourceHints struct {
	// Threads caps concurrent per-sentence extraction calls and is passed
	// through as the annotator's thread count.
	Threads int
	// Memory is the annotator's memory budget, e.g. "6G".
	Memory string
}

// WithDefaults returns a copy of the hints with unset fields filled in.
func (h ResourceHints) WithDefaults() ResourceHints {
	if h.Threads <= 0 {
		h.Threads = defaultThreads
	}
	if h.Memory == "" {
		h.Memory = defaultMemory
	}
	return h
}

// Validate rejects hints that cannot be forwarded.
func (h ResourceHints) Validate() error {
	if h.Threads < 0 {
		return fmt.Errorf("threads must not be negative: %d", h.Threads)
	}
	return nil
}
