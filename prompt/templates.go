package prompt

import (
	"slices"
	"strings"
	"text/template"
)

// Command shortcuts that wrap the selection in a fixed instruction.
const (
	CommandExplain  = "explain"
	CommandFix      = "fix"
	CommandOptimize = "optimize"
	CommandDocument = "document"
	CommandTest     = "test"
)

const fence = "```{{.Language}}\n{{.Code}}\n```"

var commandTemplates = map[string]*template.Template{
	CommandExplain: template.Must(template.New(CommandExplain).Parse(
		"Explain the following {{.Language}} code in detail:\n" + fence)),
	CommandFix: template.Must(template.New(CommandFix).Parse(
		"Analyze the following {{.Language}} code and fix any bugs or issues:\n" + fence +
			"\n\nProvide the corrected code and explain what was wrong.")),
	CommandOptimize: template.Must(template.New(CommandOptimize).Parse(
		"Optimize the following {{.Language}} code for better performance and readability:\n" + fence +
			"\n\nProvide the optimized code and explain the improvements.")),
	CommandDocument: template.Must(template.New(CommandDocument).Parse(
		"Generate comprehensive documentation for the following {{.Language}} code:\n" + fence +
			"\n\nInclude function/class descriptions, parameters, return values, and usage examples.")),
	CommandTest: template.Must(template.New(CommandTest).Parse(
		"Generate unit tests for the following {{.Language}} code:\n" + fence +
			"\n\nProvide complete test cases covering various scenarios.")),
}

// TemplateData holds the data passed to a command template.
type TemplateData struct {
	Language string
	Code     string
}

// Commands returns the known command names in sorted order.
func Commands() []string {
	names := make([]string, 0, len(commandTemplates))
	for name := range commandTemplates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsCommand reports whether name is a known command.
func IsCommand(name string) bool {
	_, ok := commandTemplates[name]
	return ok
}

// RenderCommand renders the template of a known command.
// It reports false for unknown names.
func RenderCommand(name string, data TemplateData) (string, bool, error) {
	t, ok := commandTemplates[name]
	if !ok {
		return "", false, nil
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", true, err
	}
	return b.String(), true, nil
}
