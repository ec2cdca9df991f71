package gdrive

import "strings"

const (
	defaultPageSize = 15
	maxPageSize     = 1000
)

// SearchQuery filters a search. Both filters are optional.
type SearchQuery struct {
	FileName string
	FolderID string
	PageSize int
}

// build renders the Drive query language expression for q.
// With neither filter set the query lists folders, matching the folder
// picker the search page starts from.
func (q SearchQuery) build() string {
	var clauses []string
	if q.FolderID != "" {
		clauses = append(clauses, quote(q.FolderID)+" in parents")
	}
	if q.FileName != "" {
		clauses = append(clauses, "name = "+quote(q.FileName))
	}
	if len(clauses) == 0 {
		return "mimeType = " + quote(MimeFolder)
	}
	clauses = append(clauses, "trashed = false")
	return strings.Join(clauses, " and ")
}

func (q SearchQuery) pageSize() int64 {
	switch {
	case q.PageSize <= 0:
		return defaultPageSize
	case q.PageSize > maxPageSize:
		return maxPageSize
	default:
		return int64(q.PageSize)
	}
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote renders s as a single-quoted string literal of the Drive query language.
func quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}

func childrenQuery(folderID string) string {
	return quote(rootID(folderID)) + " in parents and trashed = false"
}

func nameQuery(name string) string {
	return "name = " + quote(name) + " and mimeType != " + quote(MimeFolder) + " and trashed = false"
}

const trashQuery = "trashed = true"
