package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// TextCompleter is satisfied by Completer.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const translatePrompt = `Translate the following Hindi transcript into clear English.
Do NOT summarize. Translate word-by-word while keeping meaning EXACT.

Hindi text:
`

// ContainsDevanagari reports whether s has any rune in U+0900..U+097F.
func ContainsDevanagari(s string) bool {
	for _, r := range s {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	return false
}

// Translator turns Hindi transcripts into English.
type Translator struct {
	completer TextCompleter
	log       *zap.Logger
}

// NewTranslator creates a Translator. The completer should run at temperature 0.
func NewTranslator(completer TextCompleter, log *zap.Logger) *Translator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Translator{completer: completer, log: log}
}

// TranslateIfNeeded returns text unchanged unless it contains Devanagari.
// Any failure falls back to the original text.
func (t *Translator) TranslateIfNeeded(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" || !ContainsDevanagari(text) {
		return text
	}
	t.log.Info("hindi transcript detected, translating", zap.Int("chars", len(text)))

	english, err := t.completer.Complete(ctx, translatePrompt+text)
	if err != nil {
		t.log.Warn("translation failed, keeping original", zap.Error(err))
		return text
	}
	english = strings.TrimSpace(english)
	if english == "" {
		t.log.Warn("translation returned empty text, keeping original")
		return text
	}
	return english
}
