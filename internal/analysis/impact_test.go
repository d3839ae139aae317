package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patlens/internal/git"
	"patlens/internal/pattern"
	"patlens/internal/report"
	"patlens/internal/tree"
)

func scannedReport() *report.Report {
	return report.Compile("/proj", []report.FileResult{
		{
			Path: "/proj/config.go",
			Matches: []pattern.Match{
				{
					PatternName: "Singleton",
					NodeName:    "ConfigSingleton",
					Confidence:  0.9,
					Pos:         tree.Position{Filepath: "/proj/config.go", StartLine: 5, EndLine: 20},
				},
				{
					PatternName: "Factory",
					NodeName:    "NewConfig",
					Confidence:  0.8,
					Pos:         tree.Position{Filepath: "/proj/config.go", StartLine: 30, EndLine: 34},
				},
			},
		},
		{
			Path: "/proj/other.go",
			Matches: []pattern.Match{
				{
					PatternName: "Builder",
					NodeName:    "QueryBuilder",
					Confidence:  0.75,
					Pos:         tree.Position{Filepath: "/proj/other.go", StartLine: 3, EndLine: 40},
				},
			},
		},
	})
}

func TestAnalyzeImpact(t *testing.T) {
	changes := []git.ChangedFile{
		{Path: "config.go", ChangedLines: []int{12, 13}},
		{Path: "untracked.go", ChangedLines: []int{1}},
	}

	impact := AnalyzeImpact(scannedReport(), changes)

	t.Run("overlapping match is touched", func(t *testing.T) {
		require.Len(t, impact.Touched, 1)
		assert.Equal(t, "ConfigSingleton", impact.Touched[0].NodeName)
	})

	t.Run("same-file match outside the hunks is adjacent", func(t *testing.T) {
		require.Len(t, impact.Adjacent, 1)
		assert.Equal(t, "NewConfig", impact.Adjacent[0].NodeName)
	})

	t.Run("changed file without detections is reported", func(t *testing.T) {
		assert.Equal(t, []string{"untracked.go"}, impact.UnmatchedFiles)
	})

	t.Run("unchanged files stay out of the impact set", func(t *testing.T) {
		for _, m := range append(impact.Touched, impact.Adjacent...) {
			assert.NotEqual(t, "QueryBuilder", m.NodeName)
		}
	})
}

func TestAnalyzeImpact_NoChanges(t *testing.T) {
	impact := AnalyzeImpact(scannedReport(), nil)
	assert.Empty(t, impact.Touched)
	assert.Empty(t, impact.Adjacent)
	assert.Empty(t, impact.UnmatchedFiles)
}
