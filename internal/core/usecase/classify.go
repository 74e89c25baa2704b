package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/core/prompt"
)

const (
	detectionMaxTokens   = 10
	detectionTemperature = 0.1
)

// japaneseMarkers are matched case-insensitively against the detector output.
var japaneseMarkers = []string{"jp", "japanese", "日本語"}

// LanguageClassifier asks a text backend which language a word is in.
// It is fail-open: any backend failure resolves to domain.DefaultLanguage.
type LanguageClassifier struct {
	completer ports.TextCompleter
}

func NewLanguageClassifier(completer ports.TextCompleter) *LanguageClassifier {
	return &LanguageClassifier{completer: completer}
}

func (c *LanguageClassifier) Detect(ctx context.Context, word string) domain.Outcome[domain.Language] {
	sent := prompt.Detection(word)
	output, err := c.completer.Complete(ctx, domain.CompletionRequest{
		Prompt:      sent,
		MaxTokens:   detectionMaxTokens,
		Temperature: detectionTemperature,
	})
	if err != nil {
		slog.Warn("stage_fallback",
			"stage", domain.StageClassify,
			"word", word,
			"outcome", domain.OutcomeDefault,
			"error", err,
		)
		return domain.Recovered(domain.DefaultLanguage, domain.OutcomeDefault, err)
	}
	return domain.Succeeded(normalizeLanguage(stripEcho(output, sent)))
}

func normalizeLanguage(output string) domain.Language {
	lowered := strings.ToLower(output)
	for _, marker := range japaneseMarkers {
		if strings.Contains(lowered, marker) {
			return domain.LanguageJapanese
		}
	}
	return domain.LanguageEnglish
}

// stripEcho removes a leading copy of the submitted prompt from backend output.
func stripEcho(output, sent string) string {
	trimmed := strings.TrimSpace(output)
	echo := strings.TrimSpace(sent)
	if echo != "" && strings.HasPrefix(trimmed, echo) {
		return strings.TrimPrefix(trimmed, echo)
	}
	return output
}
