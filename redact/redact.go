// Package redact scrubs secret values out of shell source before it leaves the machine.
package redact

import (
	"regexp"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Mask replaces every redacted value.
const Mask = "***"

// safeVars are environment variables that are non-sensitive and useful as context.
var safeVars = map[string]bool{
	"HOME": true, "USER": true, "PWD": true, "OLDPWD": true,
	"SHELL": true, "PATH": true, "LANG": true, "TERM": true,
	"EDITOR": true, "PAGER": true, "HOSTNAME": true, "LOGNAME": true,
	"TMPDIR": true, "XDG_CONFIG_HOME": true, "XDG_DATA_HOME": true,
	"XDG_RUNTIME_DIR": true, "DISPLAY": true, "WAYLAND_DISPLAY": true,
	"HISTFILE": true, "HISTSIZE": true, "SHLVL": true,
	"COLUMNS": true, "LINES": true, "LC_ALL": true, "LC_CTYPE": true,
}

var shellLanguages = map[string]bool{
	"shellscript": true, "bash": true, "sh": true, "zsh": true,
}

// IsShell reports whether an editor language id is a shell dialect.
func IsShell(language string) bool {
	return shellLanguages[strings.ToLower(language)]
}

type span struct{ start, end int }

// Shell replaces the values of assignments to non-safe variables with Mask.
// Everything else, formatting included, is left untouched. Text that does not
// parse as bash goes through a line-based fallback instead.
func Shell(src string) string {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(true))
	prog, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return regexRedact(src)
	}

	var spans []span
	syntax.Walk(prog, func(node syntax.Node) bool {
		n, ok := node.(*syntax.Assign)
		if !ok || n.Name == nil || n.Value == nil || safeVars[n.Name.Value] {
			return true
		}
		start, end := int(n.Value.Pos().Offset()), int(n.Value.End().Offset())
		if start < end && end <= len(src) {
			spans = append(spans, span{start, end})
		}
		return true
	})
	if len(spans) == 0 {
		return src
	}

	slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })
	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, s := range spans {
		if s.start < last {
			continue
		}
		b.WriteString(src[last:s.start])
		b.WriteString(Mask)
		last = s.end
	}
	b.WriteString(src[last:])
	return b.String()
}

var reAssign = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)=(\S+)`)

// regexRedact is a fallback for text that fails AST parsing.
func regexRedact(src string) string {
	return reAssign.ReplaceAllStringFunc(src, func(m string) string {
		parts := reAssign.FindStringSubmatch(m)
		name := parts[1]
		if safeVars[name] {
			return m
		}
		return name + "=" + Mask
	})
}
