package domain

import (
	"strings"
	"time"
)

// Language is the detected language of an input word.
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageJapanese Language = "jp"

	// DefaultLanguage is used whenever detection is inconclusive.
	DefaultLanguage = LanguageEnglish
)

func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageJapanese
}

// HaikuLineCount is the shape every validated haiku has.
const HaikuLineCount = 3

// GenerationErrorMarker replaces the haiku when the text backend is unreachable.
const GenerationErrorMarker = "Error generating haiku"

// Haiku holds the generated lines in order.
type Haiku []string

func (h Haiku) Text() string {
	return strings.Join(h, "\n")
}

// Complete reports whether the haiku has exactly three non-empty lines.
func (h Haiku) Complete() bool {
	if len(h) != HaikuLineCount {
		return false
	}
	for _, line := range h {
		if strings.TrimSpace(line) == "" {
			return false
		}
	}
	return true
}

func (h Haiku) Clone() Haiku {
	if h == nil {
		return nil
	}
	out := make(Haiku, len(h))
	copy(out, h)
	return out
}

// GenerationRequest is one user submission.
type GenerationRequest struct {
	Word string `json:"word"`
}

// NewGenerationRequest trims the word and rejects empty input.
func NewGenerationRequest(word string) (GenerationRequest, error) {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return GenerationRequest{}, WrapError(ErrInvalidInput, "new generation request", errEmptyWord)
	}
	return GenerationRequest{Word: trimmed}, nil
}

// StoredArtifact is a persisted haiku with its illustration.
type StoredArtifact struct {
	ID        int64     `json:"id"`
	InputWord string    `json:"input_word"`
	Language  Language  `json:"language"`
	HaikuText string    `json:"haiku_text"`
	ImageData string    `json:"image_data"`
	CreatedAt time.Time `json:"created_at"`
}

// NewArtifact is the create payload accepted by the storage backend.
type NewArtifact struct {
	InputWord string   `json:"input_word"`
	Language  Language `json:"language"`
	HaikuText string   `json:"haiku_text"`
	ImageData string   `json:"image_data"`
}
