package summary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biosleuth/ko2pathway/internal/enrich"
	"github.com/biosleuth/ko2pathway/internal/resolve"
)

func edge(code, pw string) resolve.Edge {
	return resolve.Edge{Code: code, PathwayID: pw}
}

func okDesc(text string) enrich.Description {
	return enrich.Description{Text: text, OK: true}
}

func TestBuildCountsEdgesPerPathway(t *testing.T) {
	edges := []resolve.Edge{
		edge("K00001", "map00010"),
		edge("K00002", "map00010"),
		edge("K00001", "map00071"),
	}
	descs := map[string]enrich.Description{
		"map00010": okDesc("Glycolysis"),
		"map00071": okDesc("Fatty acid degradation"),
	}

	rows := Build(edges, descs, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{PathwayID: "map00010", Description: "Glycolysis", KOCount: 2}, rows[0])
	assert.Equal(t, Row{PathwayID: "map00071", Description: "Fatty acid degradation", KOCount: 1}, rows[1])
}

func TestBuildExclusionIsCaseInsensitiveSubstring(t *testing.T) {
	edges := []resolve.Edge{
		edge("K00001", "map01100"),
		edge("K00002", "map00010"),
	}
	descs := map[string]enrich.Description{
		"map01100": okDesc("Metabolic pathways"),
		"map00010": okDesc("Glycolysis"),
	}

	rows := Build(edges, descs, []string{"metabolic"})
	require.Len(t, rows, 1)
	assert.Equal(t, "Glycolysis", rows[0].Description)
}

func TestBuildDeduplicatesByDescriptionKeepingFirst(t *testing.T) {
	// Two pathway ids sharing one description: the first-encountered group
	// in pre-sort order survives, even if the later one has a higher count.
	edges := []resolve.Edge{
		edge("K00001", "map00010"),
		edge("K00002", "map00011"),
		edge("K00003", "map00011"),
	}
	descs := map[string]enrich.Description{
		"map00010": okDesc("Glycolysis"),
		"map00011": okDesc("Glycolysis"),
	}

	rows := Build(edges, descs, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "map00010", rows[0].PathwayID)
	assert.Equal(t, 1, rows[0].KOCount)
}

func TestBuildRankingIsStableDescending(t *testing.T) {
	edges := []resolve.Edge{
		edge("K00001", "mapA"),
		edge("K00002", "mapB"), edge("K00003", "mapB"), edge("K00004", "mapB"),
		edge("K00005", "mapC"), edge("K00006", "mapC"), edge("K00007", "mapC"),
		edge("K00008", "mapD"),
	}
	// Counts per pathway: A=1, B=3, C=3, D=1.
	descs := map[string]enrich.Description{
		"mapA": okDesc("Alpha"), "mapB": okDesc("Beta"),
		"mapC": okDesc("Gamma"), "mapD": okDesc("Delta"),
	}

	rows := Build(edges, descs, nil)
	require.Len(t, rows, 4)
	assert.Equal(t, []int{3, 3, 1, 1}, []int{rows[0].KOCount, rows[1].KOCount, rows[2].KOCount, rows[3].KOCount})
	// Ties retain the incoming relative order.
	assert.Equal(t, "Beta", rows[0].Description)
	assert.Equal(t, "Gamma", rows[1].Description)
	assert.Equal(t, "Alpha", rows[2].Description)
	assert.Equal(t, "Delta", rows[3].Description)
}

func TestBuildUnknownSentinelAtBoundary(t *testing.T) {
	edges := []resolve.Edge{edge("K00001", "map12345")}
	descs := map[string]enrich.Description{
		"map12345": {OK: false},
	}

	rows := Build(edges, descs, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, UnknownDescription, rows[0].Description)

	// The sentinel participates in exclusion filtering like any description.
	assert.Empty(t, Build(edges, descs, []string{"unknown"}))
}

func TestBuildEmptyInputs(t *testing.T) {
	assert.Empty(t, Build(nil, nil, nil))
	assert.Empty(t, Build(nil, nil, []string{"metabolic"}))
}

func TestTop(t *testing.T) {
	rows := []Row{
		{PathwayID: "a", KOCount: 3},
		{PathwayID: "b", KOCount: 2},
		{PathwayID: "c", KOCount: 1},
	}
	assert.Equal(t, rows[:2], Top(rows, 2))
	assert.Equal(t, rows, Top(rows, 20))
	assert.Empty(t, Top(nil, 20))
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{
		{PathwayID: "map00010", Description: "Glycolysis / Gluconeogenesis", KOCount: 5},
		{PathwayID: "map00071", Description: "Fatty acid degradation", KOCount: 2},
	}
	require.NoError(t, WriteTSV(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "pathway_id\tdescription\tKO_count", lines[0])
	assert.Equal(t, "map00010\tGlycolysis / Gluconeogenesis\t5", lines[1])
	assert.Equal(t, "map00071\tFatty acid degradation\t2", lines[2])
}

func TestWriteTSVEmptyTableHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, nil))
	assert.Equal(t, "pathway_id\tdescription\tKO_count\n", buf.String())
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{PathwayID: "map00010", Description: "Glycolysis", KOCount: 5}}
	require.NoError(t, WriteJSON(&buf, rows))

	var decoded []Row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rows, decoded)
	assert.Contains(t, buf.String(), `"KO_count": 5`)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	rows := []Row{{PathwayID: "map00010", Description: "Glycolysis", KOCount: 1}}

	tsvPath := filepath.Join(dir, "summary.tsv")
	require.NoError(t, WriteFile(tsvPath, "tsv", rows))
	data, err := os.ReadFile(tsvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "pathway_id\t"))

	jsonPath := filepath.Join(dir, "summary.json")
	require.NoError(t, WriteFile(jsonPath, "json", rows))

	require.Error(t, WriteFile(filepath.Join(dir, "summary.xml"), "xml", rows))
}

func TestLoadExclusions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.txt")
	require.NoError(t, os.WriteFile(path, []byte("Metabolic\n\n  biosynthesis  \n"), 0o644))

	terms, err := LoadExclusions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Metabolic", "biosynthesis"}, terms)

	_, err = LoadExclusions(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
