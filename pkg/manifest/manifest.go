package manifest

// SummaryManifest is the run summary written next to the report.
// It gives an overview of every document, its status and top keywords
// without opening the report itself.
type SummaryManifest struct {
	RunID             string            `json:"run_id" yaml:"run_id"`
	GeneratedAt       string            `json:"generated_at" yaml:"generated_at"`
	StartedAt         string            `json:"started_at" yaml:"started_at"`
	FinishedAt        string            `json:"finished_at" yaml:"finished_at"`
	DurationMs        int64             `json:"duration_ms" yaml:"duration_ms"`
	Vocabulary        string            `json:"vocabulary,omitempty" yaml:"vocabulary,omitempty"`
	Report            string            `json:"report,omitempty" yaml:"report,omitempty"`
	MeanStrategy      string            `json:"mean_strategy" yaml:"mean_strategy"`
	Terms             int               `json:"terms" yaml:"terms"`
	TotalDocuments    int               `json:"total_documents" yaml:"total_documents"`
	Successful        int               `json:"successful" yaml:"successful"`
	Failed            int               `json:"failed" yaml:"failed"`
	TotalTokens       int               `json:"total_tokens" yaml:"total_tokens"`
	AggregateKeywords []string          `json:"aggregate_keywords" yaml:"aggregate_keywords"`
	Results           []DocumentSummary `json:"results" yaml:"results"`
}

// DocumentSummary represents summary information for a single document.
type DocumentSummary struct {
	Document     string   `json:"document" yaml:"document"`
	Path         string   `json:"path" yaml:"path"`
	Status       string   `json:"status" yaml:"status"` // "success" or "error"
	ErrorType    string   `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	SizeBytes    int64    `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	Tokens       int      `json:"tokens" yaml:"tokens"`
	Language     string   `json:"language,omitempty" yaml:"language,omitempty"`
	DurationMs   int64    `json:"duration_ms" yaml:"duration_ms"`
	TopKeywords  []string `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)
