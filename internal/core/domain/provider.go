package domain

// CompletionRequest is sent to a text-generation backend.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// ImageRequest is sent to an image-generation backend.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	GuidanceScale  float64
	Steps          int
}
