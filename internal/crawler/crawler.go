package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Crawler scans a directory for source files eligible for pattern detection.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance.
func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", "vendor", "node_modules", "testdata"},
	}
}

// ScanProject walks the root directory and streams every relevant source
// file path through the callback, preventing large memory buildup.
func (c *Crawler) ScanProject(root string, onFile func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		// Only process Go files
		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}

		onFile(path)
		return nil
	})
}

// Collect walks the root directory and returns all relevant file paths.
func (c *Crawler) Collect(root string) ([]string, error) {
	var paths []string
	err := c.ScanProject(root, func(path string) {
		paths = append(paths, path)
	})
	return paths, err
}
