package google

import (
	"fmt"
	"strings"
)

// quoteTab returns the A1 notation for a whole tab. Titles with spaces or
// punctuation must be single-quoted, with embedded quotes doubled.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// missingTabs returns the wanted tabs not present in existing, in wanted order.
func missingTabs(existing, wanted []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		have[t] = struct{}{}
	}
	var out []string
	for _, t := range wanted {
		if _, ok := have[t]; ok {
			continue
		}
		have[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// toValues converts report rows for the Values API. Empty cells become "".
func toValues(rows [][]any) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if v == nil {
				v = ""
			}
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

// parseValues converts a values matrix (as returned by Sheets API) to strings.
func parseValues(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
