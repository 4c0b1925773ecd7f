package complete

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("```\\w*\\n?")

// Clean post-processes a raw model completion: it drops the cursor marker and
// code fence markers, and keeps at most one blank line between content lines.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, CursorMarker, "")
	s = strings.TrimSpace(s)
	s = fenceRe.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), " \t\r\n")
}
