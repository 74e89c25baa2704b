// Package prompt renders the instruction strings sent to text and image
// backends. Templates are data loaded from the embedded templates.yaml.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

//go:embed templates.yaml
var templatesYAML []byte

// Example is one exemplar word/haiku pair embedded in a template.
type Example struct {
	Word  string   `yaml:"word"`
	Lines []string `yaml:"lines"`
}

// Template is the haiku instruction for one language.
type Template struct {
	Preamble        string    `yaml:"preamble"`
	ExamplesHeading string    `yaml:"examples_heading"`
	WordLabel       string    `yaml:"word_label"`
	HaikuLabel      string    `yaml:"haiku_label"`
	Examples        []Example `yaml:"examples"`
}

type illustration struct {
	Prompt         string `yaml:"prompt"`
	NegativePrompt string `yaml:"negative_prompt"`
}

type catalog struct {
	Detection    string                       `yaml:"detection"`
	Illustration illustration                 `yaml:"illustration"`
	Haiku        map[domain.Language]Template `yaml:"haiku"`
	Fallback     map[domain.Language][]string `yaml:"fallback"`
}

var templates = mustLoad(templatesYAML)

func mustLoad(raw []byte) catalog {
	cat, err := load(raw)
	if err != nil {
		panic(fmt.Sprintf("prompt: %v", err))
	}
	return cat
}

func load(raw []byte) (catalog, error) {
	var cat catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return catalog{}, fmt.Errorf("parse templates: %w", err)
	}
	for _, lang := range []domain.Language{domain.LanguageEnglish, domain.LanguageJapanese} {
		if _, ok := cat.Haiku[lang]; !ok {
			return catalog{}, fmt.Errorf("missing haiku template for %q", lang)
		}
		if len(cat.Fallback[lang]) != domain.HaikuLineCount {
			return catalog{}, fmt.Errorf("fallback verse for %q must have %d lines", lang, domain.HaikuLineCount)
		}
	}
	if strings.TrimSpace(cat.Detection) == "" {
		return catalog{}, fmt.Errorf("missing detection template")
	}
	return cat, nil
}

func templateFor(language domain.Language) Template {
	if tmpl, ok := templates.Haiku[language]; ok {
		return tmpl
	}
	return templates.Haiku[domain.DefaultLanguage]
}

// Build renders the haiku instruction for word in the given language.
// The word is inserted verbatim into the delimited slot at the end.
func Build(word string, language domain.Language) string {
	tmpl := templateFor(language)

	var b strings.Builder
	b.WriteString(tmpl.Preamble)
	b.WriteString("\n####\n")
	b.WriteString(tmpl.ExamplesHeading)
	b.WriteString("\n")
	for _, example := range tmpl.Examples {
		fmt.Fprintf(&b, "%s %s\n", tmpl.WordLabel, example.Word)
		fmt.Fprintf(&b, "%s %s\n", tmpl.HaikuLabel, strings.Join(example.Lines, "\n"))
	}
	b.WriteString("###\n<<<\n")
	fmt.Fprintf(&b, "%s %s\n", tmpl.WordLabel, word)
	b.WriteString(">>>")
	return b.String()
}

// Detection renders the language detection instruction.
func Detection(word string) string {
	return strings.ReplaceAll(templates.Detection, "{{word}}", word)
}

// Illustration renders the image prompt and its negative constraint.
func Illustration(haiku domain.Haiku) (string, string) {
	joined := strings.Join(haiku, ", ")
	return strings.ReplaceAll(templates.Illustration.Prompt, "{{haiku}}", joined), templates.Illustration.NegativePrompt
}

// Fallback returns a fresh copy of the canned verse for language.
func Fallback(language domain.Language) domain.Haiku {
	lines, ok := templates.Fallback[language]
	if !ok {
		lines = templates.Fallback[domain.DefaultLanguage]
	}
	return domain.Haiku(lines).Clone()
}
