package ingestion

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/fmuoria/jadehire-agent/internal/models"
)

// SupportedExtensions lists the document types offered in upload dialogs.
// Anything else is still accepted and decoded as plain text.
var SupportedExtensions = []string{".txt", ".docx", ".pdf", ".odt", ".rtf", ".html", ".md"}

// ReadDocument extracts data under its declared name
func ReadDocument(name string, data []byte) models.Document {
	return models.Document{
		Name: filepath.Base(name),
		Text: ExtractBytes(data, name),
	}
}

// ReadFile loads a document from disk
func ReadFile(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return ReadDocument(path, data), nil
}

// ReadMultipart extracts every uploaded file of a multipart form field
func ReadMultipart(files []*multipart.FileHeader) ([]models.Document, error) {
	documents := make([]models.Document, 0, len(files))
	for _, fileHeader := range files {
		doc, err := readPart(fileHeader)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

func readPart(fileHeader *multipart.FileHeader) (models.Document, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to open uploaded file %s: %w", fileHeader.Filename, err)
	}
	defer file.Close()

	return models.Document{
		Name: filepath.Base(fileHeader.Filename),
		Text: ExtractText(file, fileHeader.Filename),
	}, nil
}

// FileNames returns the declared names of uploaded files without reading them
func FileNames(files []*multipart.FileHeader) []string {
	names := make([]string, 0, len(files))
	for _, fileHeader := range files {
		names = append(names, filepath.Base(fileHeader.Filename))
	}
	return names
}
