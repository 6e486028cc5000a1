// Package review holds the pure aggregation logic the curation UI drives:
// per-document review counts and a clamped cursor over the chunk list.
package review

import "github.com/calyxlabs/curator/internal/models"

type Progress struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
	Filtered int `json:"filtered"`
}

// Summarize buckets chunk rows by review status. Enriching chunks still
// await a curator decision, so they count as pending.
func Summarize(chunks []models.DocumentChunk) Progress {
	p := Progress{Total: len(chunks)}
	for _, c := range chunks {
		switch c.ReviewStatus {
		case models.ReviewApproved:
			p.Approved++
		case models.ReviewRejected:
			p.Rejected++
		case models.ReviewFiltered:
			p.Filtered++
		default:
			p.Pending++
		}
	}
	return p
}

// IsComplete is true once every chunk has a terminal status. An empty
// document is never "complete" from the reviewer's point of view.
func (p Progress) IsComplete() bool {
	return p.Pending == 0 && p.Total > 0
}

// Ratio is the reviewed share, 0 for empty documents.
func (p Progress) Ratio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Approved+p.Rejected) / float64(p.Total)
}

// Cursor is sequential navigation over a chunk list, clamped to
// [0, length-1]. A zero-length cursor stays at 0.
type Cursor struct {
	pos    int
	length int
}

func NewCursor(length int) *Cursor {
	if length < 0 {
		length = 0
	}
	return &Cursor{length: length}
}

func (c *Cursor) Index() int { return c.pos }

func (c *Cursor) Next() int { return c.Goto(c.pos + 1) }

func (c *Cursor) Prev() int { return c.Goto(c.pos - 1) }

func (c *Cursor) Goto(i int) int {
	if i < 0 {
		i = 0
	}
	if max := c.length - 1; max >= 0 && i > max {
		i = max
	}
	if c.length == 0 {
		i = 0
	}
	c.pos = i
	return c.pos
}
