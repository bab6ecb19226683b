// Package detector guesses the language of extracted document text.
package detector

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"

	"github.com/dtnitsch/doculens/models"
)

// sampleRunes bounds how much of a document is examined.
const sampleRunes = 4000

// DefaultLanguages is used when no language list is configured.
var DefaultLanguages = []string{"english", "french", "german", "spanish", "italian", "portuguese", "dutch"}

// Detector wraps a lingua detector restricted to a set of candidate languages.
type Detector struct {
	mu        sync.Mutex
	ld        lingua.LanguageDetector
	languages []lingua.Language
}

// New builds a detector for the named languages (English names or ISO 639-1
// codes). At least two languages are needed.
func New(names []string) (*Detector, error) {
	if len(names) == 0 {
		names = DefaultLanguages
	}

	languages, err := ParseLanguages(names)
	if err != nil {
		return nil, err
	}
	if len(languages) < 2 {
		return nil, fmt.Errorf("%w: language detection needs at least two languages", models.ErrConfiguration)
	}

	ld := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithMinimumRelativeDistance(0.1).
		Build()

	return &Detector{ld: ld, languages: languages}, nil
}

// ParseLanguages resolves language names and ISO 639-1 codes, dropping
// duplicates. Every unknown name is reported.
func ParseLanguages(names []string) ([]lingua.Language, error) {
	byName := make(map[string]lingua.Language)
	for _, l := range lingua.AllLanguages() {
		byName[strings.ToLower(l.String())] = l
		byName[strings.ToLower(l.IsoCode639_1().String())] = l
	}

	seen := make(map[lingua.Language]bool)
	var (
		out     []lingua.Language
		unknown []string
	)
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		l, ok := byName[key]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown languages: %s", models.ErrConfiguration, strings.Join(unknown, ", "))
	}
	return out, nil
}

// Languages returns the candidate languages as lower-case ISO 639-1 codes.
func (d *Detector) Languages() []string {
	codes := make([]string, len(d.languages))
	for i, l := range d.languages {
		codes[i] = strings.ToLower(l.IsoCode639_1().String())
	}
	return codes
}

// Detect returns the ISO 639-1 code of the most likely language of text, or
// "" when the text is too short or too ambiguous to tell.
func (d *Detector) Detect(text string) string {
	text = sample(text)
	if strings.TrimSpace(text) == "" {
		return ""
	}

	d.mu.Lock()
	lang, ok := d.ld.DetectLanguageOf(text)
	d.mu.Unlock()
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

func sample(text string) string {
	n := 0
	for i := range text {
		if n == sampleRunes {
			return text[:i]
		}
		n++
	}
	return text
}
