package summary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// tsvHeader matches the artifact contract: ranked rows under a fixed header.
const tsvHeader = "pathway_id\tdescription\tKO_count"

// WriteTSV serializes the ranked table as tab-separated values. An empty
// table still gets the header line so downstream tooling sees a well-formed
// artifact.
func WriteTSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, tsvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%d\n", row.PathwayID, row.Description, row.KOCount); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteJSON serializes the ranked table as an indented JSON array, preserving
// rank order.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteFile writes the summary artifact to path in the requested format
// ("tsv" or "json").
func WriteFile(path, format string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary file %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "tsv":
		err = WriteTSV(f, rows)
	case "json":
		err = WriteJSON(f, rows)
	default:
		err = fmt.Errorf("unsupported summary format %q", format)
	}
	if err != nil {
		return fmt.Errorf("writing summary file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing summary file %s: %w", path, err)
	}
	return nil
}
