package pdf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "See doi 10.1038/nature12373 for details", "10.1038/nature12373"},
		{"trailing period", "Available at 10.1234/abc.def.", "10.1234/abc.def"},
		{"wrapped in parens", "(doi:10.1101/2020.01.01.123456)", "10.1101/2020.01.01.123456"},
		{"uppercase prefix", "DOI: 10.1093/MOLBEV/MSAA015", "10.1093/MOLBEV/MSAA015"},
		{"subdivided registrant", "10.1000.10/xyz123", "10.1000.10/xyz123"},
		{"first of two", "10.1111/aaa and 10.2222/bbb", "10.1111/aaa"},
		{"short registrant", "10.123/abc", ""},
		{"none", "no identifiers here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDOI(tt.text); got != tt.want {
				t.Errorf("FindDOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1234/ABC", "10.1234/abc"},
		{"https://doi.org/10.1234/abc", "10.1234/abc"},
		{"doi:10.1234/abc", "10.1234/abc"},
		{"  DOI:10.1234/Abc ", "10.1234/abc"},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractor_UnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := NewExtractor(nil).ExtractText(path); got != "" {
		t.Errorf("ExtractText() = %q, want empty for unreadable PDF", got)
	}
}

func TestExtractor_MissingFile(t *testing.T) {
	if got := NewExtractor(nil).ExtractText(filepath.Join(t.TempDir(), "missing.pdf")); got != "" {
		t.Errorf("ExtractText() = %q, want empty for missing file", got)
	}
}
