// Package summary turns resolved pathway edges into the ranked summary table:
// group, count, filter, deduplicate, sort.
package summary

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/biosleuth/ko2pathway/internal/enrich"
	"github.com/biosleuth/ko2pathway/internal/resolve"
)

// UnknownDescription is the rendering of a pathway whose description lookup
// failed. It exists only at this boundary; upstream the miss is an explicit
// not-OK result.
const UnknownDescription = "Unknown"

// Row is one line of the final summary artifact. KOCount is the number of
// distinct KO codes mapped to the pathway.
type Row struct {
	PathwayID   string `json:"pathway_id"`
	Description string `json:"description"`
	KOCount     int    `json:"KO_count"`
}

// Build aggregates edges into ranked summary rows:
//
//  1. group by (pathway id, description) in first-encounter order and count
//     edges per group,
//  2. drop groups whose description contains any exclusion term
//     (case-insensitive substring match),
//  3. deduplicate by description, keeping the first group in pre-sort order,
//  4. stable-sort by count, descending.
//
// An empty result is a valid output, not an error.
func Build(edges []resolve.Edge, descs map[string]enrich.Description, exclude []string) []Row {
	type key struct{ id, desc string }
	counts := make(map[key]int)
	var order []key

	for _, e := range edges {
		desc := UnknownDescription
		if d, ok := descs[e.PathwayID]; ok && d.OK {
			desc = d.Text
		}
		k := key{id: e.PathwayID, desc: desc}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	terms := make([]string, 0, len(exclude))
	for _, term := range exclude {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms = append(terms, term)
		}
	}

	seenDesc := make(map[string]struct{})
	rows := make([]Row, 0, len(order))
	for _, k := range order {
		if excluded(k.desc, terms) {
			continue
		}
		if _, dup := seenDesc[k.desc]; dup {
			continue
		}
		seenDesc[k.desc] = struct{}{}
		rows = append(rows, Row{PathwayID: k.id, Description: k.desc, KOCount: counts[k]})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].KOCount > rows[j].KOCount
	})
	return rows
}

func excluded(desc string, terms []string) bool {
	lower := strings.ToLower(desc)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Top returns the first n rows of the ranked table, order-preserving. This is
// the exact handoff contract for the chart renderer.
func Top(rows []Row, n int) []Row {
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}

// LoadExclusions reads a newline-delimited exclusion term list. Terms are
// matched case-insensitively as substrings; blank lines are ignored.
func LoadExclusions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening exclusion file: %w", err)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term != "" {
			terms = append(terms, term)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading exclusion file: %w", err)
	}
	return terms, nil
}
