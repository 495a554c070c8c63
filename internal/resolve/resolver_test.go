package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockLinker stands in for the KEGG client.
type MockLinker struct {
	mock.Mock
}

func (m *MockLinker) LinkPathways(ctx context.Context, code string) ([]string, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func writeCacheFixture(t *testing.T, edges []Edge) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ko_map.tsv")
	require.NoError(t, SaveCache(path, edges))
	return path
}

func TestResolveFromCacheIssuesNoCalls(t *testing.T) {
	path := writeCacheFixture(t, []Edge{{Code: "K00001", PathwayID: "map00010"}})

	linker := new(MockLinker) // no expectations: any call fails the test
	r := New(linker, path, zap.NewNop())

	edges, err := r.Resolve(context.Background(), []string{"K00001"})
	require.NoError(t, err)
	assert.Equal(t, []Edge{{Code: "K00001", PathwayID: "map00010"}}, edges)
	linker.AssertNotCalled(t, "LinkPathways", mock.Anything, mock.Anything)
}

func TestResolveIncrementalTopUp(t *testing.T) {
	path := writeCacheFixture(t, []Edge{{Code: "K00001", PathwayID: "map00010"}})

	linker := new(MockLinker)
	linker.On("LinkPathways", mock.Anything, "K00002").
		Return([]string{"map00010", "map00071"}, nil).Once()

	r := New(linker, path, zap.NewNop())
	edges, err := r.Resolve(context.Background(), []string{"K00001", "K00002"})
	require.NoError(t, err)

	assert.Equal(t, []Edge{
		{Code: "K00001", PathwayID: "map00010"},
		{Code: "K00002", PathwayID: "map00010"},
		{Code: "K00002", PathwayID: "map00071"},
	}, edges)
	linker.AssertExpectations(t)

	// The merged cache now serves both codes without any further calls.
	fresh := new(MockLinker)
	r2 := New(fresh, path, zap.NewNop())
	again, err := r2.Resolve(context.Background(), []string{"K00001", "K00002"})
	require.NoError(t, err)
	assert.Equal(t, edges, again)
	fresh.AssertNotCalled(t, "LinkPathways", mock.Anything, mock.Anything)
}

func TestResolveLookupFailureIsPerCode(t *testing.T) {
	linker := new(MockLinker)
	linker.On("LinkPathways", mock.Anything, "K00001").
		Return(nil, errors.New("connection reset")).Once()
	linker.On("LinkPathways", mock.Anything, "K00002").
		Return([]string{"map00020"}, nil).Once()

	r := New(linker, "", zap.NewNop())
	edges, err := r.Resolve(context.Background(), []string{"K00001", "K00002"})
	require.NoError(t, err)
	assert.Equal(t, []Edge{{Code: "K00002", PathwayID: "map00020"}}, edges)
	linker.AssertExpectations(t)
}

func TestResolveCancelledContextIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	linker := new(MockLinker)
	linker.On("LinkPathways", mock.Anything, "K00001").
		Run(func(args mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()

	r := New(linker, "", zap.NewNop())
	_, err := r.Resolve(ctx, []string{"K00001", "K00002"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveDeduplicatesEdges(t *testing.T) {
	linker := new(MockLinker)
	// The service answering the same pathway twice must not double-count.
	linker.On("LinkPathways", mock.Anything, "K00001").
		Return([]string{"map00010", "map00010"}, nil).Once()

	r := New(linker, "", zap.NewNop())
	edges, err := r.Resolve(context.Background(), []string{"K00001"})
	require.NoError(t, err)
	assert.Equal(t, []Edge{{Code: "K00001", PathwayID: "map00010"}}, edges)
}

func TestResolveUnreadableCacheIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ko_map.tsv")
	require.NoError(t, SaveCache(path, []Edge{{Code: "K00001", PathwayID: "map00010"}}))
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })

	if _, err := os.Open(path); err == nil {
		t.Skip("running as a user that ignores file modes")
	}

	r := New(new(MockLinker), path, zap.NewNop())
	_, err := r.Resolve(context.Background(), []string{"K00001"})
	require.Error(t, err)
}

func TestResolveNoCachePathSkipsPersistence(t *testing.T) {
	linker := new(MockLinker)
	linker.On("LinkPathways", mock.Anything, "K00001").
		Return([]string{"map00010"}, nil).Once()

	r := New(linker, "", zap.NewNop())
	_, err := r.Resolve(context.Background(), []string{"K00001"})
	require.NoError(t, err)
}

func TestCacheRoundTrip(t *testing.T) {
	edges := []Edge{
		{Code: "K00001", PathwayID: "map00010"},
		{Code: "K00001", PathwayID: "map00071"},
		{Code: "K00002", PathwayID: "map00010"},
	}
	path := filepath.Join(t.TempDir(), "nested", "dir", "ko_map.tsv")
	require.NoError(t, SaveCache(path, edges))

	loaded, err := LoadCache(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, edges, loaded)
}

func TestLoadCacheMissingFileIsEmpty(t *testing.T) {
	edges, err := LoadCache(filepath.Join(t.TempDir(), "absent.tsv"), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestLoadCacheSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ko_map.tsv")
	content := "ko\tpathway_id\nK00001\tmap00010\nbroken line\n\t\nK00002\tmap00020\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	edges, err := LoadCache(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []Edge{
		{Code: "K00001", PathwayID: "map00010"},
		{Code: "K00002", PathwayID: "map00020"},
	}, edges)
}

func TestSaveCacheLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ko_map.tsv")
	require.NoError(t, SaveCache(path, []Edge{{Code: "K00001", PathwayID: "map00010"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ko_map.tsv", entries[0].Name())
}
