package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patlens/internal/pattern"
	"patlens/internal/report"
	"patlens/internal/tree"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "patlens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(root string) *report.Report {
	return report.Compile(root, []report.FileResult{
		{
			Path: "a.go",
			Matches: []pattern.Match{
				{
					PatternName: "Singleton",
					NodeName:    "ConfigSingleton",
					Confidence:  0.9,
					Pos:         tree.Position{Filepath: "a.go", StartLine: 3, EndLine: 9},
				},
				{
					PatternName: "Factory",
					NodeName:    "NewConfig",
					Confidence:  0.7,
					Pos:         tree.Position{Filepath: "a.go", StartLine: 12, EndLine: 15},
				},
			},
		},
		{Path: "b.go", ParseError: "syntax error"},
	})
}

func TestSaveAndGetScan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveScan(ctx, sampleReport("/proj"))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetScan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "/proj", got.Root)
	assert.Equal(t, 2, got.FilesScanned)
	assert.Equal(t, 1, got.ParseFailures)
	assert.Equal(t, 2, got.TotalDetections)
	require.Len(t, got.Files, 2)
	assert.Len(t, got.Files[0].Matches, 2)
}

func TestGetScan_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetScan(context.Background(), 42)
	assert.ErrorContains(t, err, "not found")
}

func TestListScans_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveScan(ctx, sampleReport("/one"))
	require.NoError(t, err)
	second, err := s.SaveScan(ctx, sampleReport("/two"))
	require.NoError(t, err)

	scans, err := s.ListScans(ctx)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, second, scans[0].ID)
	assert.Equal(t, "/two", scans[0].Root)
	assert.Equal(t, first, scans[1].ID)
	assert.Equal(t, 2, scans[0].TotalDetections)
}

func TestFindMatchesByPattern(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveScan(ctx, sampleReport("/one"))
	require.NoError(t, err)
	_, err = s.SaveScan(ctx, sampleReport("/two"))
	require.NoError(t, err)

	matches, err := s.FindMatchesByPattern(ctx, "Singleton")
	require.NoError(t, err)
	require.Len(t, matches, 2, "matches accumulate across scans")
	for _, m := range matches {
		assert.Equal(t, "Singleton", m.Pattern)
		assert.Equal(t, "ConfigSingleton", m.NodeName)
		assert.Equal(t, "a.go", m.Filepath)
		assert.Equal(t, 3, m.StartLine)
		assert.InDelta(t, 0.9, m.Confidence, 1e-9)
	}

	none, err := s.FindMatchesByPattern(ctx, "Visitor")
	require.NoError(t, err)
	assert.Empty(t, none)
}
