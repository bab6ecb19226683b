package models

// Term is one vocabulary entry.
type Term struct {
	Display  string   // first spelling seen in the vocabulary file
	Key      string   // normalized form used for matching
	Position int      // row order in the vocabulary file, 0-based
	Metadata []string // remaining cells of the vocabulary row
}

// Document is one input file of a batch.
type Document struct {
	Index int    // input order; also the report column order
	Name  string // base file name, used in column headers
	Path  string
}
