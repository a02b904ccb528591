// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/pdiddy/trackport/pkg/types"
)

// DefaultLLMModel is used when the configuration names no model.
const DefaultLLMModel = "gpt-4o-mini"

// chatModel is the part of an eino chat model the backend uses.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

var systemPromptTmpl = template.Must(template.New("system").Parse(
	`You are a professional translator. Translate the user's text from {{.Source}} to {{.Target}}.
Keep numbers, names and punctuation faithful to the original.
Reply with the translation only: no quotes, notes or explanations.`))

// LLMBackend translates with an OpenAI-compatible chat model.
type LLMBackend struct {
	model chatModel
}

// NewLLMBackend builds a chat model from cfg. cfg.APIKey must be set.
func NewLLMBackend(ctx context.Context, cfg types.TranslatorConfig) (*LLMBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm backend: no API key configured")
	}
	name := cfg.Model
	if name == "" {
		name = DefaultLLMModel
	}

	mc := &openai.ChatModelConfig{
		Model:   name,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}
	if cfg.BaseURL != "" {
		mc.BaseURL = cfg.BaseURL
	}

	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}
	return &LLMBackend{model: cm}, nil
}

// Translate asks the model for a translation of text.
func (b *LLMBackend) Translate(ctx context.Context, text, src, dest string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	prompt, err := systemPrompt(src, dest)
	if err != nil {
		return "", err
	}

	msg, err := b.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompt),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("generating translation: %w", err)
	}
	if msg == nil {
		return "", ErrEmptyText
	}

	out := strings.TrimSpace(msg.Content)
	if out == "" {
		return "", ErrEmptyText
	}
	return out, nil
}

func systemPrompt(src, dest string) (string, error) {
	var buf bytes.Buffer
	err := systemPromptTmpl.Execute(&buf, struct{ Source, Target string }{
		Source: languageName(src),
		Target: languageName(dest),
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// languageName renders a tag in English, e.g. "zh-CN" as "Simplified
// Chinese". Unknown tags are returned unchanged.
func languageName(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}
