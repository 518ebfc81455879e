package export

import (
	"strings"
)

// Download is a named file offered to the user
type Download struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// standardizedFormats are the download names offered for a standardized
// resume. Every format carries the same plain text; document conversion
// is left to the user's tools.
var standardizedFormats = []struct {
	ext         string
	contentType string
}{
	{".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	{".pdf", "application/pdf"},
	{".txt", "text/plain; charset=utf-8"},
}

// StandardizedDownloads offers text under .docx, .pdf and .txt names
func StandardizedDownloads(baseName, text string) []Download {
	base := strings.TrimSpace(baseName)
	if base == "" || base == "." {
		base = "resume"
	}
	base = "standardized_" + base

	downloads := make([]Download, 0, len(standardizedFormats))
	for _, format := range standardizedFormats {
		downloads = append(downloads, Download{
			FileName:    base + format.ext,
			ContentType: format.contentType,
			Data:        []byte(text),
		})
	}
	return downloads
}

// Find returns the download with the given extension, e.g. ".pdf"
func Find(downloads []Download, ext string) (Download, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, d := range downloads {
		if strings.HasSuffix(d.FileName, ext) {
			return d, true
		}
	}
	return Download{}, false
}
