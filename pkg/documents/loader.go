package documents

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/producex-ai/axiom-sub001/pkg/analysis"
)

// textExtensions are the file types accepted as already-extracted plain text.
// PDF/DOCX extraction happens upstream of this module.
var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// LoadFile reads one plain-text document.
func LoadFile(path string) (doc analysis.Document, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read document: %s", path)
		return doc, err
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		err = errors.Errorf("document is empty: %s", path)
		return doc, err
	}

	doc = analysis.Document{
		FileName: filepath.Base(path),
		Text:     text,
	}

	return doc, err
}

// LoadDir reads every plain-text document in a directory, sorted by file name
// for deterministic analysis input order.
func LoadDir(dir string) (docs []analysis.Document, err error) {
	var entries []os.DirEntry
	entries, err = os.ReadDir(dir)
	if err != nil {
		err = errors.Wrapf(err, "failed to read document directory: %s", dir)
		return docs, err
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !textExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var doc analysis.Document
		doc, err = LoadFile(filepath.Join(dir, name))
		if err != nil {
			err = errors.Wrapf(err, "failed to load document: %s", name)
			return docs, err
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		err = errors.Errorf("no text documents found in: %s", dir)
		return docs, err
	}

	return docs, err
}
