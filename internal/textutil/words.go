package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

// Words splits text on whitespace. With fold set, each word is Unicode
// case-folded so "The" and "the" count as one word.
func Words(text string, fold bool) []string {
	fields := strings.Fields(text)
	if !fold {
		return fields
	}
	folder := cases.Fold()
	for i, field := range fields {
		fields[i] = folder.String(field)
	}
	return fields
}
