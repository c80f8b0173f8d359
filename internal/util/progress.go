package util

import "fmt"

// BatchProgress tracks how far a batch analysis run has advanced. It is
// updated once per article and rendered as "analyzed N of total".
type BatchProgress struct {
	Total    int
	Analyzed int
	Reused   int
	Failed   int
}

func NewBatchProgress(total int) *BatchProgress {
	return &BatchProgress{Total: total}
}

// Done is the number of articles the batch has finished with, whether the
// article was analyzed, reused, or failed.
func (p *BatchProgress) Done() int {
	return p.Analyzed + p.Reused + p.Failed
}

func (p *BatchProgress) Percentage() int32 {
	if p.Total <= 0 {
		return 0
	}
	done := min(p.Done(), p.Total)
	return int32(done * 100 / p.Total)
}

// Describe renders the progress line reported after each article.
func (p *BatchProgress) Describe() string {
	return fmt.Sprintf("analyzed %d of %d", p.Done(), p.Total)
}
