// Package prompt assembles the message list sent for a chat turn.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
	defaults "github.com/Paranoid-AF/localai/default"
)

// Builder turns a chat request into upstream messages.
type Builder struct {
	system string
}

// NewBuilder creates a builder with the given system prompt.
// An empty prompt selects the built-in one.
func NewBuilder(systemPrompt string) *Builder {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		systemPrompt = strings.TrimSpace(defaults.SystemPrompt)
	}
	return &Builder{system: systemPrompt}
}

// LoadSystemPrompt reads the custom system prompt from the config directory.
// Returns empty string if no custom prompt exists.
func LoadSystemPrompt(logger *zap.Logger) string {
	return LoadSystemPromptFile(localai.SystemPromptPath(), logger)
}

// LoadSystemPromptFile reads a custom system prompt from path.
func LoadSystemPromptFile(path string, logger *zap.Logger) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if logger != nil {
		logger.Info("loaded custom system prompt", zap.String("path", path))
	}
	return string(data)
}

// SystemPrompt returns the system message text.
func (b *Builder) SystemPrompt() string { return b.system }

// Validate checks the request without building anything. A command
// requires a non-empty selection.
func Validate(req *localai.ChatRequest) error {
	if req.Command != "" && req.Selection.Empty() {
		return ErrNoSelection
	}
	return nil
}

// Build returns the system message, the replayed history and the current
// user message, in that order.
func (b *Builder) Build(req *localai.ChatRequest) ([]localai.ChatMessage, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	messages := make([]localai.ChatMessage, 0, len(req.History)+2)
	messages = append(messages, localai.ChatMessage{Role: localai.RoleSystem, Content: b.system})
	messages = append(messages, History(req.History)...)

	content, err := userMessage(req)
	if err != nil {
		return nil, err
	}
	messages = append(messages, localai.ChatMessage{Role: localai.RoleUser, Content: content})
	return messages, nil
}

// History converts host turns to messages. Assistant turns with no text are
// dropped; turns of other roles are ignored.
func History(turns []localai.Turn) []localai.ChatMessage {
	var messages []localai.ChatMessage
	for _, turn := range turns {
		switch turn.Role {
		case localai.RoleUser:
			messages = append(messages, localai.ChatMessage{Role: localai.RoleUser, Content: turn.Prompt})
		case localai.RoleAssistant:
			text := strings.Join(turn.Parts, "")
			if text == "" {
				continue
			}
			messages = append(messages, localai.ChatMessage{Role: localai.RoleAssistant, Content: text})
		}
	}
	return messages
}

func userMessage(req *localai.ChatRequest) (string, error) {
	if req.Command != "" {
		rendered, ok, err := RenderCommand(req.Command, TemplateData{
			Language: req.Selection.Language,
			Code:     req.Selection.Text,
		})
		if err != nil {
			return "", fmt.Errorf("render %s template: %w", req.Command, err)
		}
		if !ok {
			return req.Prompt, nil
		}
		return rendered, nil
	}
	if req.Selection.Empty() {
		return req.Prompt, nil
	}
	return WithSelection(req.Prompt, req.Selection), nil
}

// WithSelection prefixes prompt with the selected code block.
func WithSelection(prompt string, sel *localai.Selection) string {
	return fmt.Sprintf("Selected code (%s):\n```%s\n%s\n```\n\n%s", sel.Language, sel.Language, sel.Text, prompt)
}
