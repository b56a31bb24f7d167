package app

import "strings"

const maxTracedQueryLength = 512

// formatDBQueryForTrace flattens a query to a single line and caps its length
// so span attributes stay readable.
func formatDBQueryForTrace(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	flat := strings.Join(fields, " ")
	if len(flat) > maxTracedQueryLength {
		flat = flat[:maxTracedQueryLength] + "..."
	}
	return flat
}
