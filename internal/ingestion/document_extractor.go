package ingestion

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	// BinarySampleSize is the number of bytes to sample for binary detection
	BinarySampleSize = 1000
	// BinaryThreshold is the proportion of non-printable characters that indicates binary data
	BinaryThreshold = 0.3
)

// ExtractText reads r and returns its text, dispatching on the extension of
// name. It never fails: unreadable structure degrades to empty or partial text.
func ExtractText(r io.Reader, name string) string {
	data, err := io.ReadAll(r)
	if err != nil {
		logger.Named("ingestion").Warn(context.Background(), "failed to read document",
			logger.String("name", name), logger.Error(err))
		if len(data) == 0 {
			return ""
		}
	}
	return ExtractBytes(data, name)
}

// ExtractBytes is ExtractText over an in-memory document.
func ExtractBytes(data []byte, name string) string {
	ext := strings.ToLower(filepath.Ext(name))

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".odt":
		text, _, err = docconv.ConvertODT(bytes.NewReader(data))
	case ".rtf":
		text, _, err = docconv.ConvertRTF(bytes.NewReader(data))
	case ".html", ".htm":
		text, _, err = docconv.ConvertHTML(bytes.NewReader(data), false)
	default:
		if ext != ".txt" && ext != ".md" && IsBinaryData(string(data)) {
			logger.Named("ingestion").Warn(context.Background(), "decoding binary-looking content as text",
				logger.String("name", name))
		}
		return decodeLenient(data)
	}

	if err != nil {
		logger.Named("ingestion").Warn(context.Background(), "text extraction failed",
			logger.String("name", name), logger.String("ext", ext), logger.Error(err))
	}
	return strings.ToValidUTF8(text, "\uFFFD")
}

// decodeLenient decodes UTF-8, replacing invalid sequences instead of failing
func decodeLenient(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// extractPDF joins the plain text of every page. Pages without text
// contribute an empty line; the PDF parser panics on some malformed input.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		pages = append(pages, pageText(reader.Page(i)))
	}
	return strings.Join(pages, "\n"), nil
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// extractDOCX flattens word/document.xml into paragraphs joined by newlines
func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return flattenParagraphs(doc.Editable().GetContent())
}

// flattenParagraphs walks WordprocessingML and keeps only run text.
func flattenParagraphs(documentXML string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
		inPara     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep what was read so far.
			if inPara {
				paragraphs = append(paragraphs, current.String())
			}
			return strings.Join(paragraphs, "\n"), fmt.Errorf("malformed document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				paragraphs = append(paragraphs, current.String())
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}

// IsBinaryData checks if content appears to be binary (PDF/ZIP markers)
func IsBinaryData(content string) bool {
	if len(content) == 0 {
		return false
	}

	if strings.HasPrefix(content, "%PDF-") {
		return true
	}

	// ZIP magic number (docx, odt)
	if len(content) >= 2 && content[:2] == "PK" {
		return true
	}

	sampleSize := min(BinarySampleSize, len(content))
	nonPrintable := 0
	for i := 0; i < sampleSize; i++ {
		ch := content[i]
		if ch < 32 && ch != '\n' && ch != '\r' && ch != '\t' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(sampleSize) > BinaryThreshold
}
