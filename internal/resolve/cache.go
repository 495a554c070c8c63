package resolve

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// cacheHeader is the first line of the cache artifact. The file stays a plain
// TSV so operators can inspect or prune it by hand.
const cacheHeader = "ko\tpathway_id"

// LoadCache reads previously resolved (code, pathway) edges from path. A
// missing file yields an empty set; any other read failure is returned to the
// caller, which treats it as a fatal configuration error. Silently ignoring a
// broken cache would re-trigger the full, slow live resolution on every run.
func LoadCache(path string, logger *zap.Logger) ([]Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	defer f.Close()

	var (
		edges   []Edge
		skipped int
		lineNo  int
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || (lineNo == 1 && line == cacheHeader) {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			skipped++
			continue
		}
		edges = append(edges, Edge{Code: parts[0], PathwayID: parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}
	if skipped > 0 {
		logger.Warn("Skipped malformed cache lines",
			zap.String("path", path), zap.Int("lines", skipped))
	}
	return edges, nil
}

// SaveCache writes the full edge set to path with whole-file overwrite
// semantics. The replacement is staged in a temp file and renamed into place,
// so an interrupted run can never leave a half-written cache behind.
func SaveCache(path string, edges []Edge) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("staging cache file: %w", err)
	}
	defer func() {
		// No-ops once the rename has succeeded.
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	if _, err := fmt.Fprintln(w, cacheHeader); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	for _, e := range edges {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", e.Code, e.PathwayID); err != nil {
			return fmt.Errorf("writing cache: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing cache %s: %w", path, err)
	}
	return nil
}
