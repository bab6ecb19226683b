// Package vocabulary builds the normalized, de-duplicated term list a batch counts.
package vocabulary

import (
	"errors"
	"fmt"

	"github.com/dtnitsch/doculens/models"
	"github.com/dtnitsch/doculens/pkg/analytics"
)

// Entry is one raw row from a vocabulary source.
type Entry struct {
	Text     string
	Metadata []string
	Row      int // 1-based row in the source file, for error messages
}

// Vocabulary is an ordered set of unique normalized terms.
type Vocabulary struct {
	terms   []models.Term
	byKey   map[string]int
	headers []string
}

// New validates entries and collapses duplicates onto their first occurrence.
// Every blank or multi-word entry is reported, joined into one configuration error.
func New(entries []Entry) (*Vocabulary, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: vocabulary is empty", models.ErrConfiguration)
	}

	a := analytics.NewAnalytics()
	v := &Vocabulary{byKey: make(map[string]int, len(entries))}

	var errs []error
	for _, e := range entries {
		key := a.Normalize(e.Text)
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("%w: row %d: blank term", models.ErrConfiguration, e.Row))
			continue
		case !analytics.IsSingleToken(e.Text):
			errs = append(errs, fmt.Errorf("%w: row %d: %q is not a single word", models.ErrConfiguration, e.Row, e.Text))
			continue
		}

		if _, dup := v.byKey[key]; dup {
			continue
		}
		v.byKey[key] = len(v.terms)
		v.terms = append(v.terms, models.Term{
			Display:  e.Text,
			Key:      key,
			Position: len(v.terms),
			Metadata: e.Metadata,
		})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return v, nil
}

// WithHeaders attaches the metadata column headers of the source file.
func (v *Vocabulary) WithHeaders(headers []string) *Vocabulary {
	v.headers = headers
	return v
}

// Headers returns the metadata column headers, if the source had any.
func (v *Vocabulary) Headers() []string { return v.headers }

// Terms returns the terms in vocabulary order.
func (v *Vocabulary) Terms() []models.Term { return v.terms }

func (v *Vocabulary) Len() int { return len(v.terms) }

// Lookup returns the position of a normalized key.
func (v *Vocabulary) Lookup(key string) (int, bool) {
	i, ok := v.byKey[key]
	return i, ok
}
