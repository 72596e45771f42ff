package ui

import (
	"fmt"
	"strings"

	diff "github.com/shogoki/gotextdiff"
)

// DiffStat counts the lines a generation added to and removed from the
// document it replaced.
type DiffStat struct {
	Added   int
	Removed int
}

// ComputeDiffStat diffs before against after line by line.
func ComputeDiffStat(before, after string) DiffStat {
	var st DiffStat
	if before == after {
		return st
	}
	unified := diff.Diff("before", []byte(before), "after", []byte(after))
	for _, line := range strings.Split(string(unified), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// file headers
		case strings.HasPrefix(line, "+"):
			st.Added++
		case strings.HasPrefix(line, "-"):
			st.Removed++
		}
	}
	return st
}

// Empty reports whether nothing changed.
func (d DiffStat) Empty() bool { return d.Added == 0 && d.Removed == 0 }

func (d DiffStat) String() string {
	return fmt.Sprintf("+%d -%d", d.Added, d.Removed)
}

// Render styles the stat for the status bar.
func (s *Styles) RenderDiffStat(d DiffStat) string {
	if d.Empty() {
		return s.Muted.Render("no changes")
	}
	return s.DiffAdd.Render(fmt.Sprintf("+%d", d.Added)) + " " + s.DiffRemove.Render(fmt.Sprintf("-%d", d.Removed))
}
