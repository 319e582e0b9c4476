package report

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/owaspscan/internal/model"
)

const (
	DefaultContextLines = 3

	// overviewLines is how much of a clean document a comparison shows.
	overviewLines = 20
)

type ChunkType string

const (
	ChunkEqual   ChunkType = "equal"
	ChunkAdded   ChunkType = "added"
	ChunkRemoved ChunkType = "removed"
)

// Chunk is a run of lines with the same diff status.
type Chunk struct {
	Type  ChunkType `json:"type"`
	Lines []string  `json:"lines"`
}

// Section is a focused view around one or more findings. Line numbers
// are 1-indexed and inclusive; the original range is in the submitted
// code, the secure range in the rewrite.
type Section struct {
	StartLine       int      `json:"startLine"`
	EndLine         int      `json:"endLine"`
	SecureStartLine int      `json:"secureStartLine"`
	SecureEndLine   int      `json:"secureEndLine"`
	FindingLines    []int    `json:"findingLines"`
	Original        []string `json:"original"`
	Secure          []string `json:"secure"`
}

// Comparison pairs submitted code with its secure rewrite.
type Comparison struct {
	Chunks   []Chunk   `json:"chunks"`
	Patch    string    `json:"patch"`
	Sections []Section `json:"sections"`
	Added    int       `json:"added"`
	Removed  int       `json:"removed"`
}

// Compare diffs original against secure line by line and builds focused
// sections of contextLines around every finding line. Overlapping or
// touching sections are merged. Without findings a single section covers
// the start of the document. A negative contextLines selects
// DefaultContextLines.
func Compare(original, secure string, findings []model.Finding, contextLines int) Comparison {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}
	origLines := strings.Split(original, "\n")
	secLines := strings.Split(secure, "\n")

	diffs := lineDiff(original, secure)
	cmp := Comparison{Chunks: []Chunk{}}
	for _, d := range diffs {
		c := Chunk{Lines: splitDiffText(d.Text)}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			c.Type = ChunkEqual
		case diffmatchpatch.DiffInsert:
			c.Type = ChunkAdded
			cmp.Added += len(c.Lines)
		case diffmatchpatch.DiffDelete:
			c.Type = ChunkRemoved
			cmp.Removed += len(c.Lines)
		}
		cmp.Chunks = append(cmp.Chunks, c)
	}

	dmp := diffmatchpatch.New()
	cmp.Patch = dmp.PatchToText(dmp.PatchMake(original, secure))

	eq := equalPositions(diffs, len(origLines))
	for _, r := range focusRanges(findings, len(origLines), contextLines) {
		from, to := secureRange(eq, r.start, r.end, len(secLines))
		cmp.Sections = append(cmp.Sections, Section{
			StartLine:       r.start,
			EndLine:         r.end,
			SecureStartLine: from + 1,
			SecureEndLine:   to,
			FindingLines:    r.lines,
			Original:        append([]string(nil), origLines[r.start-1:r.end]...),
			Secure:          append([]string(nil), secLines[from:to]...),
		})
	}
	return cmp
}

// lineDiff diffs with one rune per line. Both sides get a trailing
// newline so the last line compares like any other.
func lineDiff(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a+"\n", b+"\n")
	return dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
}

func splitDiffText(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// equalPositions maps each 0-indexed original line to its 0-indexed
// position in the secure text, or -1 when the line was removed or
// rewritten.
func equalPositions(diffs []diffmatchpatch.Diff, n int) []int {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	o, s := 0, 0
	for _, d := range diffs {
		k := len(splitDiffText(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			for i := 0; i < k && o < n; i++ {
				pos[o] = s
				o++
				s++
			}
		case diffmatchpatch.DiffDelete:
			o += k
		case diffmatchpatch.DiffInsert:
			s += k
		}
	}
	return pos
}

// secureRange returns the half-open secure range for original lines
// [start, end]. It extends from just after the last unchanged line before
// start to the first unchanged line after end, so rewritten and inserted
// lines next to the section are included.
func secureRange(eq []int, start, end, secLen int) (int, int) {
	from := 0
	for p := start - 2; p >= 0; p-- {
		if eq[p] >= 0 {
			from = eq[p] + 1
			break
		}
	}

	to := secLen
	for q := end; q < len(eq); q++ {
		if eq[q] >= 0 {
			to = eq[q]
			break
		}
	}
	if to < from {
		to = from
	}
	return from, to
}

type focusRange struct {
	start, end int
	lines      []int
}

func focusRanges(findings []model.Finding, n, ctx int) []focusRange {
	if len(findings) == 0 {
		return []focusRange{{start: 1, end: min(overviewLines, n), lines: []int{}}}
	}

	seen := map[int]bool{}
	var lines []int
	for _, f := range findings {
		if f.Line >= 1 && f.Line <= n && !seen[f.Line] {
			seen[f.Line] = true
			lines = append(lines, f.Line)
		}
	}
	sort.Ints(lines)

	var out []focusRange
	for _, l := range lines {
		start, end := max(1, l-ctx), min(n, l+ctx)
		if k := len(out) - 1; k >= 0 && start <= out[k].end+1 {
			out[k].end = max(out[k].end, end)
			out[k].lines = append(out[k].lines, l)
			continue
		}
		out = append(out, focusRange{start: start, end: end, lines: []int{l}})
	}
	return out
}
