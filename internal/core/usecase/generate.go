package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/core/prompt"
)

const (
	generationMaxTokens   = 100
	generationTemperature = 0.7
)

// HaikuGenerator writes a haiku through a text backend and enforces its shape.
type HaikuGenerator struct {
	completer ports.TextCompleter
}

func NewHaikuGenerator(completer ports.TextCompleter) *HaikuGenerator {
	return &HaikuGenerator{completer: completer}
}

// Compose never fails. A backend error yields the single-line error marker;
// output that does not reduce to three lines yields the fallback verse.
func (g *HaikuGenerator) Compose(ctx context.Context, word string, language domain.Language) domain.Outcome[domain.Haiku] {
	sent := prompt.Build(word, language)
	raw, err := g.completer.Complete(ctx, domain.CompletionRequest{
		Prompt:      sent,
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	})
	if err != nil {
		slog.Warn("stage_fallback",
			"stage", domain.StageGenerate,
			"word", word,
			"outcome", domain.OutcomeMarker,
			"error", err,
		)
		return domain.Recovered(domain.Haiku{domain.GenerationErrorMarker}, domain.OutcomeMarker, err)
	}

	lines := cleanHaikuOutput(raw, sent)
	if len(lines) != domain.HaikuLineCount {
		shapeErr := fmt.Errorf("generated text has %d usable lines, want %d", len(lines), domain.HaikuLineCount)
		slog.Warn("stage_fallback",
			"stage", domain.StageGenerate,
			"word", word,
			"language", language,
			"outcome", domain.OutcomeFallback,
			"error", shapeErr,
		)
		return domain.Recovered(prompt.Fallback(language), domain.OutcomeFallback, shapeErr)
	}
	return domain.Succeeded(lines)
}

// cleanHaikuOutput strips the echoed prompt, drops blank lines and keeps at
// most the first three remaining lines.
func cleanHaikuOutput(raw, sent string) domain.Haiku {
	text := strings.TrimSpace(stripEcho(raw, sent))
	lines := make(domain.Haiku, 0, domain.HaikuLineCount)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == domain.HaikuLineCount {
			break
		}
	}
	return lines
}
