// Package complete produces inline code suggestions for a cursor position.
package complete

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/redact"
)

const (
	maxTokens   = 150
	temperature = 0.3
)

var stopSequences = []string{"\n\n", "<|endoftext|>", "```"}

// Completer performs a one-shot text completion.
type Completer interface {
	Complete(ctx context.Context, req localai.CompletionRequest) (string, error)
}

// Settings control when the trigger issues requests.
type Settings struct {
	Enabled bool
	// Delay is the minimum time between two accepted triggers.
	Delay time.Duration
	// CacheTTL is how long cleaned suggestions are reused; zero disables the cache.
	CacheTTL    time.Duration
	RedactShell bool
}

// SettingsFromConfig extracts trigger settings from cfg.
func SettingsFromConfig(cfg *localai.Config) Settings {
	return Settings{
		Enabled:     localai.CompletionEnabled(cfg),
		Delay:       localai.CompletionDelay(cfg),
		CacheTTL:    localai.CompletionCacheTTL(cfg),
		RedactShell: localai.RedactShellEnabled(cfg),
	}
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithClock replaces the time source used for debouncing.
func WithClock(now func() time.Time) Option {
	return func(t *Trigger) { t.now = now }
}

// Trigger turns cursor events into at most one completion request per delay window.
type Trigger struct {
	completer Completer
	settings  atomic.Pointer[Settings]
	cache     atomic.Pointer[suggestionCache]
	now       func() time.Time
	logger    *zap.Logger

	mu           sync.Mutex
	lastAccepted time.Time
}

// NewTrigger creates a trigger.
func NewTrigger(c Completer, s Settings, logger *zap.Logger, opts ...Option) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Trigger{
		completer: c,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Update(s)
	return t
}

// Update replaces the settings. The cache is rebuilt when its TTL changes.
func (t *Trigger) Update(s Settings) {
	old := t.settings.Swap(&s)
	if old != nil && old.CacheTTL == s.CacheTTL {
		return
	}
	var next *suggestionCache
	if s.CacheTTL > 0 {
		next = newSuggestionCache(s.CacheTTL)
	}
	if prev := t.cache.Swap(next); prev != nil {
		prev.Close()
	}
}

// Settings returns the active settings.
func (t *Trigger) Settings() Settings {
	return *t.settings.Load()
}

// Close stops the cache expiration loop.
func (t *Trigger) Close() {
	if c := t.cache.Swap(nil); c != nil {
		c.Close()
	}
}

// accept applies the enabled flag and the debounce window. An accepted
// trigger records its time before any request is made.
func (t *Trigger) accept() bool {
	s := t.settings.Load()
	if !s.Enabled {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if !t.lastAccepted.IsZero() && now.Sub(t.lastAccepted) < s.Delay {
		return false
	}
	t.lastAccepted = now
	return true
}

// Suggest returns the cleaned suggestion for doc, or "" when there is nothing
// to show. Failures are logged, never returned.
func (t *Trigger) Suggest(ctx context.Context, doc localai.Document) string {
	if !t.accept() {
		return ""
	}

	surrounding := Surrounding(doc)
	if t.settings.Load().RedactShell && redact.IsShell(doc.Language) {
		surrounding.Before = redact.Shell(surrounding.Before)
		surrounding.After = redact.Shell(surrounding.After)
	}
	prompt := BuildPrompt(doc, surrounding)

	cache := t.cache.Load()
	if cache != nil {
		if suggestion, ok := cache.Get(prompt); ok {
			t.logger.Debug("completion cache hit", zap.String("file", doc.FileName))
			return suggestion
		}
	}

	raw, err := t.completer.Complete(ctx, localai.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stop:        stopSequences,
	})
	if ctx.Err() != nil {
		t.logger.Debug("completion cancelled", zap.String("file", doc.FileName))
		return ""
	}
	if err != nil {
		t.logger.Warn("completion failed", zap.Error(err))
		return ""
	}

	suggestion := Clean(raw)
	if cache != nil && suggestion != "" {
		cache.Set(prompt, suggestion)
	}
	return suggestion
}
