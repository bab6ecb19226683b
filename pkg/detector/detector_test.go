package detector

import (
	"errors"
	"strings"
	"testing"

	"github.com/dtnitsch/doculens/models"
)

func TestParseLanguages(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    int
		wantErr bool
	}{
		{"names", []string{"English", "french"}, 2, false},
		{"iso codes", []string{"en", "DE"}, 2, false},
		{"duplicates collapse", []string{"english", "en", " English "}, 1, false},
		{"blank skipped", []string{"", "spanish"}, 1, false},
		{"unknown", []string{"english", "klingon"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLanguages(tt.input)
			if tt.wantErr {
				if !errors.Is(err, models.ErrConfiguration) {
					t.Fatalf("ParseLanguages() error = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLanguages() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ParseLanguages() = %d languages, want %d", len(got), tt.want)
			}
		})
	}
}

func TestNew_NeedsTwoLanguages(t *testing.T) {
	if _, err := New([]string{"english"}); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("New(one language) error = %v, want ErrConfiguration", err)
	}
}

func TestDetect(t *testing.T) {
	d, err := New([]string{"english", "french"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := d.Languages(); len(got) != 2 || got[0] != "en" || got[1] != "fr" {
		t.Errorf("Languages() = %v, want [en fr]", got)
	}

	english := "The committee reviewed the annual policy report and agreed that governance must improve across every department."
	if got := d.Detect(english); got != "en" {
		t.Errorf("Detect(english) = %q, want en", got)
	}

	french := "Le comité a examiné le rapport annuel sur la politique et a convenu que la gouvernance doit s'améliorer dans chaque département."
	if got := d.Detect(french); got != "fr" {
		t.Errorf("Detect(french) = %q, want fr", got)
	}

	if got := d.Detect("   "); got != "" {
		t.Errorf("Detect(blank) = %q, want empty", got)
	}
}

func TestSample(t *testing.T) {
	long := strings.Repeat("é", sampleRunes+10)
	if got := len([]rune(sample(long))); got != sampleRunes {
		t.Errorf("sample() kept %d runes, want %d", got, sampleRunes)
	}
	if got := sample("short"); got != "short" {
		t.Errorf("sample(short) = %q", got)
	}
}
