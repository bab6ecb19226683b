package models

import (
	"fmt"
	"strings"
)

// MeanStrategy selects how the overall mean of a term is computed.
type MeanStrategy string

const (
	// MeanPooled divides a term's total occurrences by the total tokens of the batch.
	MeanPooled MeanStrategy = "pooled"
	// MeanPerDocument averages the per-document means of successfully extracted documents.
	MeanPerDocument MeanStrategy = "per-document"
)

// ParseMeanStrategy converts a flag value to a MeanStrategy. Empty means pooled.
func ParseMeanStrategy(s string) (MeanStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pooled", "total":
		return MeanPooled, nil
	case "per-document", "document", "average":
		return MeanPerDocument, nil
	}
	return "", fmt.Errorf("%w: unknown mean strategy %q (want pooled or per-document)", ErrConfiguration, s)
}
