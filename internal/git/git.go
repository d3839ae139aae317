// Package git shells out to the local git binary to discover which lines
// changed relative to a base ref, so detection results can be related to
// in-flight changes.
package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile is one file touched by a diff, with the line numbers present
// on the new side of the change.
type ChangedFile struct {
	Path         string
	ChangedLines []int
}

// ChangedFiles runs git diff against baseRef in dir and returns the changed
// files with their added or modified line numbers.
func ChangedFiles(dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.Command("git", "diff", "-U0", baseRef)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff %s failed: %w", baseRef, err)
	}
	return parseDiff(out)
}

// hunkHeader captures the new-side start line and length from
// "@@ -oldStart,oldLen +newStart,newLen @@".
var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

func parseDiff(out []byte) ([]ChangedFile, error) {
	var (
		changes []ChangedFile
		current *ChangedFile
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "diff --git"):
			if current != nil {
				changes = append(changes, *current)
				current = nil
			}
			// "diff --git a/path b/path": the b/ side is the new version.
			if fields := strings.Fields(line); len(fields) >= 4 {
				current = &ChangedFile{Path: strings.TrimPrefix(fields[3], "b/")}
			}

		case current != nil && strings.HasPrefix(line, "@@"):
			m := hunkHeader.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			start, _ := strconv.Atoi(m[1])
			count := 1
			if m[2] != "" {
				count, _ = strconv.Atoi(m[2])
			}
			// A zero count is a pure deletion: no lines on the new side.
			for i := 0; i < count; i++ {
				current.ChangedLines = append(current.ChangedLines, start+i)
			}
		}
	}
	if current != nil {
		changes = append(changes, *current)
	}
	return changes, scanner.Err()
}
