// Package cliopts holds the flags shared by every localai subcommand and the
// helpers that turn them into an engine.
package cliopts

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/engine"
	"github.com/Paranoid-AF/localai/logger"
)

// Options are the root persistent flags.
type Options struct {
	ConfigPath string
	Debug      bool
}

// Path returns the config file to use: the --config flag, else the default location.
func (o *Options) Path() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return localai.ConfigPath()
}

// Logger returns the stderr logger for the current verbosity.
func (o *Options) Logger() *zap.Logger {
	return logger.NewLogger(o.Debug)
}

// Engine loads the config and builds an engine from it.
func (o *Options) Engine(log *zap.Logger) *engine.Engine {
	return engine.New(o.Path(), log)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var extLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascriptreact",
	".ts":   "typescript",
	".tsx":  "typescriptreact",
	".rs":   "rust",
	".rb":   "ruby",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".md":   "markdown",
	".sh":   "shellscript",
	".bash": "shellscript",
	".zsh":  "shellscript",
	".toml": "toml",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
}

// LanguageFor guesses the editor language id of path from its extension.
func LanguageFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	return strings.TrimPrefix(ext, ".")
}
