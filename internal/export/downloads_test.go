package export

import (
	"testing"
)

func TestStandardizedDownloads(t *testing.T) {
	downloads := StandardizedDownloads("jane_resume", "SUMMARY\nGo engineer")

	want := []string{"standardized_jane_resume.docx", "standardized_jane_resume.pdf", "standardized_jane_resume.txt"}
	if len(downloads) != len(want) {
		t.Fatalf("Expected %d downloads, got %d", len(want), len(downloads))
	}
	for i, d := range downloads {
		if d.FileName != want[i] {
			t.Errorf("Expected %s, got %s", want[i], d.FileName)
		}
		if string(d.Data) != "SUMMARY\nGo engineer" {
			t.Errorf("%s: expected the same text in every format", d.FileName)
		}
		if d.ContentType == "" {
			t.Errorf("%s: missing content type", d.FileName)
		}
	}
}

func TestStandardizedDownloads_DefaultName(t *testing.T) {
	for _, base := range []string{"", " ", "."} {
		d := StandardizedDownloads(base, "x")
		if d[0].FileName != "standardized_resume.docx" {
			t.Errorf("base %q: expected standardized_resume.docx, got %s", base, d[0].FileName)
		}
	}
}

func TestFind(t *testing.T) {
	downloads := StandardizedDownloads("cv", "text")

	tests := []struct {
		ext    string
		want   string
		wantOK bool
	}{
		{".pdf", "standardized_cv.pdf", true},
		{"DOCX", "standardized_cv.docx", true},
		{"txt", "standardized_cv.txt", true},
		{".odt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			d, ok := Find(downloads, tt.ext)
			if ok != tt.wantOK || d.FileName != tt.want {
				t.Errorf("Find(%q) = %q, %v, want %q, %v", tt.ext, d.FileName, ok, tt.want, tt.wantOK)
			}
		})
	}
}
