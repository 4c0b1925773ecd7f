package complete

import (
	"strings"

	localai "github.com/Paranoid-AF/localai"
)

const (
	// CursorMarker marks the insertion point in the prompt.
	CursorMarker = "<CURSOR>"

	linesBefore = 50
	linesAfter  = 10
)

// Context is the text around the cursor that a prompt is built from.
type Context struct {
	Before string
	After  string
}

// Surrounding cuts the text from column 0 of the line linesBefore above the
// cursor up to the cursor, and from the cursor to the start of the line
// linesAfter below it (or the end of the document).
func Surrounding(doc localai.Document) Context {
	lines := strings.Split(doc.Text, "\n")
	line := min(max(doc.Line, 0), len(lines)-1)
	col := runeOffset(lines[line], doc.Character)

	startLine := max(0, line-linesBefore)
	before := strings.Join(lines[startLine:line], "\n")
	if line > startLine {
		before += "\n"
	}
	before += lines[line][:col]

	after := lines[line][col:]
	if endLine := line + linesAfter; endLine < len(lines) {
		after = strings.Join(append([]string{after}, lines[line+1:endLine]...), "\n") + "\n"
	} else {
		after = strings.Join(append([]string{after}, lines[line+1:]...), "\n")
	}
	return Context{Before: before, After: after}
}

// runeOffset converts a code point column to a byte offset, clamped to the line.
func runeOffset(s string, character int) int {
	if character <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == character {
			return i
		}
		n++
	}
	return len(s)
}

// BuildPrompt renders the completion prompt for a cursor context.
func BuildPrompt(doc localai.Document, c Context) string {
	var b strings.Builder
	b.WriteString("# Language: ")
	b.WriteString(doc.Language)
	b.WriteString("\n# File: ")
	b.WriteString(baseName(doc.FileName))
	b.WriteString("\n\n")
	b.WriteString(c.Before)
	b.WriteString(CursorMarker)

	if next := strings.TrimSpace(firstLine(c.After)); next != "" {
		b.WriteString("\n# Next line: ")
		b.WriteString(next)
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// baseName strips directories using either separator.
func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}
