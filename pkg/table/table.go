// Package table accumulates per-document term counts into the batch report.
package table

import (
	"fmt"
	"sync"

	"github.com/dtnitsch/doculens/models"
	"github.com/dtnitsch/doculens/pkg/mapreduce"
)

var (
	ErrNotFinalized     = fmt.Errorf("%w: table is not finalized", models.ErrInvariantViolation)
	ErrAlreadyFinalized = fmt.Errorf("%w: table already finalized", models.ErrInvariantViolation)
	ErrAlreadyRecorded  = fmt.Errorf("%w: document already recorded", models.ErrInvariantViolation)
)

// DocumentResult is one column of the table.
type DocumentResult struct {
	Document models.Document
	Tokens   int
	Counts   []mapreduce.TermCount
	Failed   bool // extraction failed; Counts are all zero
}

// Cell is one (term, document) entry.
type Cell struct {
	Count int
	Mean  float64
}

// Row is one term across every document of the batch.
type Row struct {
	Term        models.Term
	Cells       []Cell // document order
	Total       int
	OverallMean float64
}

// Table collects document columns in input order. RecordDocument may be
// called from several goroutines; everything else is read-only after Finalize.
type Table struct {
	mu       sync.Mutex
	terms    []models.Term
	docs     []models.Document
	strategy models.MeanStrategy

	columns  []*DocumentResult // indexed by Document.Index
	recorded int

	finalized bool
	totals    []int
	overall   []float64
}

// New creates an empty table with one row per term and one column slot per document.
// Documents must carry Index values 0..len(docs)-1. Strategy aliases are
// resolved here; an unknown strategy makes Finalize fail.
func New(terms []models.Term, docs []models.Document, strategy models.MeanStrategy) *Table {
	if parsed, err := models.ParseMeanStrategy(string(strategy)); err == nil {
		strategy = parsed
	}
	return &Table{
		terms:    terms,
		docs:     docs,
		strategy: strategy,
		columns:  make([]*DocumentResult, len(docs)),
	}
}

// RecordDocument stores one document's counts in its column slot.
// Each document may be recorded once, and only before Finalize.
func (t *Table) RecordDocument(res DocumentResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finalized {
		return fmt.Errorf("%w: cannot record %s", ErrAlreadyFinalized, res.Document.Name)
	}

	idx := res.Document.Index
	if idx < 0 || idx >= len(t.columns) {
		return fmt.Errorf("%w: document index %d out of range [0,%d)", models.ErrInvariantViolation, idx, len(t.columns))
	}
	if t.columns[idx] != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyRecorded, res.Document.Name)
	}
	if len(res.Counts) != len(t.terms) {
		return fmt.Errorf("%w: %s has %d counts for %d terms", models.ErrInvariantViolation, res.Document.Name, len(res.Counts), len(t.terms))
	}

	col := res
	t.columns[idx] = &col
	t.recorded++
	return nil
}

// Finalize computes totals and overall means in one pass over every row.
// It must be called exactly once, after every document has been recorded.
func (t *Table) Finalize() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finalized {
		return ErrAlreadyFinalized
	}
	if t.recorded != len(t.columns) {
		return fmt.Errorf("%w: %d of %d documents recorded", models.ErrInvariantViolation, t.recorded, len(t.columns))
	}
	if t.strategy != models.MeanPooled && t.strategy != models.MeanPerDocument {
		return fmt.Errorf("%w: unknown mean strategy %q", models.ErrInvariantViolation, t.strategy)
	}

	var batchTokens, readable int
	for _, col := range t.columns {
		batchTokens += col.Tokens
		if !col.Failed {
			readable++
		}
	}

	t.totals = make([]int, len(t.terms))
	t.overall = make([]float64, len(t.terms))
	for i := range t.terms {
		var total int
		var meanSum float64
		for _, col := range t.columns {
			total += col.Counts[i].Count
			if !col.Failed {
				meanSum += col.Counts[i].Mean
			}
		}

		t.totals[i] = total
		switch t.strategy {
		case models.MeanPerDocument:
			if readable > 0 {
				t.overall[i] = meanSum / float64(readable)
			}
		case models.MeanPooled:
			t.overall[i] = mapreduce.Mean(total, batchTokens)
		}
	}

	t.finalized = true
	return nil
}

// Finalized reports whether Finalize has completed.
func (t *Table) Finalized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finalized
}

// Strategy returns the overall-mean formula the table uses.
func (t *Table) Strategy() models.MeanStrategy { return t.strategy }

// Terms returns the row terms in vocabulary order.
func (t *Table) Terms() []models.Term { return t.terms }

// Documents returns the column documents in input order.
func (t *Table) Documents() []models.Document { return t.docs }

// Total returns the summed count of a term across the batch.
func (t *Table) Total(term int) (int, error) {
	if err := t.checkTerm(term); err != nil {
		return 0, err
	}
	return t.totals[term], nil
}

// OverallMean returns the batch-level mean of a term.
func (t *Table) OverallMean(term int) (float64, error) {
	if err := t.checkTerm(term); err != nil {
		return 0, err
	}
	return t.overall[term], nil
}

// TokenCount returns the token total of one document column.
func (t *Table) TokenCount(doc int) (int, error) {
	if !t.Finalized() {
		return 0, ErrNotFinalized
	}
	if doc < 0 || doc >= len(t.columns) {
		return 0, fmt.Errorf("%w: document index %d out of range", models.ErrInvariantViolation, doc)
	}
	return t.columns[doc].Tokens, nil
}

// Rows returns one row per term in vocabulary order.
func (t *Table) Rows() ([]Row, error) {
	if !t.Finalized() {
		return nil, ErrNotFinalized
	}

	rows := make([]Row, len(t.terms))
	for i, term := range t.terms {
		cells := make([]Cell, len(t.columns))
		for d, col := range t.columns {
			cells[d] = Cell{Count: col.Counts[i].Count, Mean: col.Counts[i].Mean}
		}
		rows[i] = Row{
			Term:        term,
			Cells:       cells,
			Total:       t.totals[i],
			OverallMean: t.overall[i],
		}
	}
	return rows, nil
}

func (t *Table) checkTerm(term int) error {
	if !t.Finalized() {
		return ErrNotFinalized
	}
	if term < 0 || term >= len(t.terms) {
		return fmt.Errorf("%w: term index %d out of range", models.ErrInvariantViolation, term)
	}
	return nil
}
