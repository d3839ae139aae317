package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patlens/internal/pattern"
	"patlens/internal/report"
	"patlens/internal/storage"
	"patlens/internal/tree"
)

// fixedScanner returns a preloaded report for every scan.
type fixedScanner struct {
	rep *report.Report
	err error
}

func (s *fixedScanner) AnalyzeProject(context.Context, string) (*report.Report, error) {
	return s.rep, s.err
}

// memStore is an in-memory storage.Store for pipeline tests.
type memStore struct {
	scans map[int64]*report.Report
	next  int64
}

func newMemStore() *memStore {
	return &memStore{scans: make(map[int64]*report.Report)}
}

func (s *memStore) SaveScan(_ context.Context, r *report.Report) (int64, error) {
	s.next++
	s.scans[s.next] = r
	return s.next, nil
}

func (s *memStore) GetScan(_ context.Context, id int64) (*report.Report, error) {
	r, ok := s.scans[id]
	if !ok {
		return nil, fmt.Errorf("scan %d not found", id)
	}
	return r, nil
}

func (s *memStore) ListScans(context.Context) ([]storage.ScanSummary, error) {
	var out []storage.ScanSummary
	for id := s.next; id >= 1; id-- {
		out = append(out, storage.ScanSummary{ID: id, Root: s.scans[id].Root})
	}
	return out, nil
}

func (s *memStore) FindMatchesByPattern(context.Context, string) ([]storage.StoredMatch, error) {
	return nil, nil
}

func (s *memStore) Close() error { return nil }

func reportWith(names ...string) *report.Report {
	var matches []pattern.Match
	for i, name := range names {
		matches = append(matches, pattern.Match{
			PatternName: "Singleton",
			NodeName:    name,
			Confidence:  0.9,
			Pos:         tree.Position{Filepath: "a.go", StartLine: 10*i + 1, EndLine: 10*i + 5},
		})
	}
	return report.Compile("/proj", []report.FileResult{{Path: "a.go", Matches: matches}})
}

func TestSyncRun_FirstScanHasNoDiff(t *testing.T) {
	sync := NewSync(&fixedScanner{rep: reportWith("Alpha")}, newMemStore(), nil)

	res, err := sync.Run(context.Background(), "/proj", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.ScanID)
	assert.Nil(t, res.Diff)
	assert.Nil(t, res.Impact)
}

func TestSyncRun_DiffAgainstPreviousScan(t *testing.T) {
	store := newMemStore()
	scanner := &fixedScanner{rep: reportWith("Alpha", "Beta")}
	sync := NewSync(scanner, store, nil)

	_, err := sync.Run(context.Background(), "/proj", "")
	require.NoError(t, err)

	scanner.rep = reportWith("Beta", "Gamma")
	res, err := sync.Run(context.Background(), "/proj", "")
	require.NoError(t, err)

	require.NotNil(t, res.Diff)
	require.Len(t, res.Diff.New, 1)
	assert.Equal(t, "Gamma", res.Diff.New[0].NodeName)
	require.Len(t, res.Diff.Resolved, 1)
	assert.Equal(t, "Alpha", res.Diff.Resolved[0].NodeName)

	t.Run("line shifts do not count as churn", func(t *testing.T) {
		var names []string
		for _, m := range append(res.Diff.New, res.Diff.Resolved...) {
			names = append(names, m.NodeName)
		}
		assert.NotContains(t, names, "Beta")
	})
}

func TestSyncRun_SeparateRootsDoNotMix(t *testing.T) {
	store := newMemStore()

	first := NewSync(&fixedScanner{rep: reportWith("Alpha")}, store, nil)
	_, err := first.Run(context.Background(), "/proj", "")
	require.NoError(t, err)

	other := report.Compile("/other", []report.FileResult{{Path: "b.go"}})
	second := NewSync(&fixedScanner{rep: other}, store, nil)
	res, err := second.Run(context.Background(), "/other", "")
	require.NoError(t, err)
	assert.Nil(t, res.Diff, "a different root has no previous scan to diff against")
}

func TestSyncRun_ScanErrorAborts(t *testing.T) {
	sync := NewSync(&fixedScanner{err: fmt.Errorf("walk failed")}, newMemStore(), nil)

	_, err := sync.Run(context.Background(), "/proj", "")
	assert.ErrorContains(t, err, "walk failed")
}
