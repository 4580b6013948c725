package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiPrompt = "Transcribe every visible line of text in this game screenshot, one line per row, top to bottom. Output plain text only, no commentary."

// Gemini is the fallback backend: vision OCR through the Gemini API. Used
// when the host has no working tesseract installation.
type Gemini struct {
	apiKey string
	model  string
}

func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{apiKey: strings.TrimSpace(apiKey), model: model}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Available() bool { return g.apiKey != "" }

func (g *Gemini) Detect(ctx context.Context, img image.Image) ([]string, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()

	png, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode for gemini: %w", err)
	}
	m := cl.GenerativeModel(g.model)
	var temp float32
	m.GenerationConfig = genai.GenerationConfig{Temperature: &temp}

	resp, err := m.GenerateContent(ctx,
		genai.Text(geminiPrompt),
		genai.Blob{MIMEType: "image/png", Data: png},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: empty response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
			sb.WriteString("\n")
		}
	}
	return splitLines(sb.String()), nil
}
