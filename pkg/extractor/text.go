package extractor

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dtnitsch/doculens/pkg/storage"
)

// Text reads plain UTF-8 text files.
type Text struct{}

func (t *Text) Extract(ctx context.Context, path string) (string, error) {
	data, err := (&storage.Storage{}).ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8", path)
	}
	return string(data), nil
}
