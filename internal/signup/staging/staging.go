// Package staging holds user-selected files per document type before
// any backend identity exists. The area is owned by a single wizard
// session; the session serializes access.
package staging

import (
	"sort"

	"jiran/internal/signup/businesstype"
	"jiran/internal/signup/models"
)

// Area keeps staged files grouped by document type.
type Area struct {
	files map[string][]models.File
}

// New returns an empty staging area.
func New() *Area {
	return &Area{files: make(map[string][]models.File)}
}

// Stage replaces the file list for a document type. Staging an empty
// list removes the type entirely. A file name appears at most once per
// type; when the incoming list repeats a name the last occurrence wins,
// so one submission never uploads two files to the same storage path.
func (a *Area) Stage(documentType string, files []models.File) {
	if len(files) == 0 {
		delete(a.files, documentType)
		return
	}
	staged := make([]models.File, 0, len(files))
	byName := make(map[string]int, len(files))
	for _, file := range files {
		if i, seen := byName[file.Name]; seen {
			staged[i] = file
			continue
		}
		byName[file.Name] = len(staged)
		staged = append(staged, file)
	}
	a.files[documentType] = staged
}

// Unstage removes one file by name from a document type. Reports
// whether a file was actually removed.
func (a *Area) Unstage(documentType, fileName string) bool {
	staged, found := a.files[documentType]
	if !found {
		return false
	}
	for i, file := range staged {
		if file.Name == fileName {
			staged = append(staged[:i], staged[i+1:]...)
			if len(staged) == 0 {
				delete(a.files, documentType)
			} else {
				a.files[documentType] = staged
			}
			return true
		}
	}
	return false
}

// Clear empties all document types. Invoked when the selected business
// type changes so documents staged for the old type can never be
// submitted for the new one.
func (a *Area) Clear() {
	a.files = make(map[string][]models.File)
}

// Count returns how many files are staged for a document type.
func (a *Area) Count(documentType string) int {
	return len(a.files[documentType])
}

// Missing returns the required document types with zero staged files,
// in the order the config lists them.
func (a *Area) Missing(cfg businesstype.Config) []string {
	var missing []string
	for _, doc := range cfg.RequiredDocuments {
		if len(a.files[doc.Type]) == 0 {
			missing = append(missing, doc.Type)
		}
	}
	return missing
}

// Snapshot flattens the staged files into pending documents, sorted by
// document type for deterministic upload order.
func (a *Area) Snapshot() []models.PendingDocument {
	types := make([]string, 0, len(a.files))
	for documentType := range a.files {
		types = append(types, documentType)
	}
	sort.Strings(types)

	var out []models.PendingDocument
	for _, documentType := range types {
		for _, file := range a.files[documentType] {
			out = append(out, models.PendingDocument{DocumentType: documentType, File: file})
		}
	}
	return out
}
