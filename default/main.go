// Package defaults provides embedded default assets (config and system prompt).
package defaults

import _ "embed"

//go:embed default_config.toml
var DefaultConfigTOML string

//go:embed system_prompt.md
var SystemPrompt string
