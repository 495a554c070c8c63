// Package normalize turns the raw two-column (gene, KO list) input into
// validated identifier records. It is a pure transform: malformed rows are
// filtered, never fatal.
package normalize

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// codePattern is the canonical KEGG Orthology identifier shape: one capital
// letter followed by exactly five digits.
var codePattern = regexp.MustCompile(`^[A-Z]\d{5}$`)

const (
	// placeholder marks annotation rows where no KO was assigned.
	placeholder = "-"
	// koPrefix is the namespace tag some annotation tools emit.
	koPrefix = "ko:"
)

// Record is one validated ortholog code belonging to one gene. A raw row with
// a comma-separated KO list becomes several records sharing the gene.
type Record struct {
	Gene string
	Code string
}

// Result carries both views of the normalized input: the full record set and
// the deduplicated code list in first-seen order. Resolution operates on
// Codes; Records preserve the gene attribution.
type Result struct {
	Records []Record
	Codes   []string
}

// Parse reads tab-separated (gene, ko-list) rows from r. Rows with a missing
// or placeholder code field are dropped, comma lists are exploded, the ko:
// prefix is stripped, and anything that does not look like a KO code is
// discarded.
func Parse(r io.Reader) (Result, error) {
	var res Result
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 2 {
			continue
		}
		gene, raw := fields[0], fields[1]
		if raw == "" || raw == placeholder {
			continue
		}

		for _, part := range strings.Split(raw, ",") {
			code := strings.TrimPrefix(part, koPrefix)
			if !codePattern.MatchString(code) {
				continue
			}
			res.Records = append(res.Records, Record{Gene: gene, Code: code})
			if _, dup := seen[code]; !dup {
				seen[code] = struct{}{}
				res.Codes = append(res.Codes, code)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("reading input: %w", err)
	}
	return res, nil
}

// ParseFile is a convenience wrapper around Parse for a file on disk.
func ParseFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ValidCode reports whether s is a well-formed KO code. Exposed for callers
// that need to sanity-check identifiers outside the parse path.
func ValidCode(s string) bool {
	return codePattern.MatchString(s)
}
