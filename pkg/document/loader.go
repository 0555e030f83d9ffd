package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// textExtensions lists the file extensions the loader treats as plain text
// when scanning a directory. Explicitly named files bypass this filter.
var textExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
	".yaml": true,
	".yml":  true,
	".json": true,
}

// LoadFile reads a single file into a Document. The classification label is
// derived from the file name with its extension stripped, lowercased.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document %q: %w", path, err)
	}

	name := filepath.Base(path)
	return &Document{
		Filename:       name,
		Content:        string(data),
		Classification: Classify(name),
		Metadata: map[string]any{
			"size_bytes": info.Size(),
			"modified":   info.ModTime(),
		},
		SourcePath: path,
	}, nil
}

// LoadDir reads every text file directly under dir, skipping subdirectories
// and hidden files. Directory order follows the sorted listing os.ReadDir
// returns.
func LoadDir(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read document directory %q: %w", dir, err)
	}

	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !textExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		doc, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadPaths resolves a mix of file and directory paths into documents.
// Files are loaded regardless of extension; directories are scanned with
// LoadDir semantics.
func LoadPaths(paths []string) ([]*Document, error) {
	var docs []*Document
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", path, err)
		}
		if info.IsDir() {
			fromDir, err := LoadDir(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, fromDir...)
			continue
		}
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Classify derives a document-type label from a file name: the extension is
// stripped and the remainder lowercased, so "Security_Policy.pdf" classifies
// as "security_policy".
func Classify(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ToLower(base)
}
