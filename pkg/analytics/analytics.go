// Package analytics turns raw document text into comparable tokens.
package analytics

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// lineBreakHyphens are the dash runes that, followed by a newline, mark a word
// broken across two lines of a PDF page.
const lineBreakHyphens = "‐‑‒–—⁃"

// Analytics normalizes and tokenizes text. It holds a case folder and is not
// safe for concurrent use; give each worker its own.
type Analytics struct {
	folder cases.Caser
}

func NewAnalytics() *Analytics {
	return &Analytics{folder: cases.Fold()}
}

// Normalize trims surrounding whitespace and case-folds s.
func (a *Analytics) Normalize(s string) string {
	s = strings.TrimSpace(s)
	if isASCII(s) {
		return strings.ToLower(s)
	}
	return a.folder.String(s)
}

// Normalize is the package-level form of (*Analytics).Normalize.
func Normalize(s string) string {
	return NewAnalytics().Normalize(s)
}

// Tokenize splits text on runs of non-alphanumeric runes and normalizes each
// token. Empty text yields an empty slice.
func (a *Analytics) Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	fields := strings.FieldsFunc(Dehyphenate(text), isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, a.Normalize(f))
	}
	return tokens
}

// Tokenize is the package-level form of (*Analytics).Tokenize.
func Tokenize(text string) []string {
	return NewAnalytics().Tokenize(text)
}

// IsSingleToken reports whether s tokenizes to exactly one token covering all of it.
func IsSingleToken(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, isSeparator) == -1
}

// Dehyphenate rejoins words split by a dash at the end of a line.
func Dehyphenate(text string) string {
	if !strings.ContainsAny(text, lineBreakHyphens) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if strings.ContainsRune(lineBreakHyphens, r) {
			rest := text[i+size:]
			switch {
			case strings.HasPrefix(rest, "\r\n"):
				i += size + 2
				continue
			case strings.HasPrefix(rest, "\n"):
				i += size + 1
				continue
			}
		}
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
