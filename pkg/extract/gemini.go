package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	commonerrors "github.com/scorchlab/litpipe/pkg/common/errors"
)

// GeminiClient sends one PDF per request to the hosted model. Each request is
// an independent context; nothing is shared between documents.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient creates the client. An empty apiKey falls back to the
// GEMINI_API_KEY environment variable.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not found")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.0) // deterministic extraction
	model.ResponseMIMEType = "application/json"

	return &GeminiClient{client: client, model: model}, nil
}

// Close cleans up resources.
func (g *GeminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// ExtractFromPDF sends the raw PDF bytes plus the extraction prompt and
// returns the model's text response.
func (g *GeminiClient) ExtractFromPDF(ctx context.Context, pdfData []byte, promptText string) (string, error) {
	resp, err := g.model.GenerateContent(ctx,
		genai.Blob{MIMEType: "application/pdf", Data: pdfData},
		genai.Text(promptText),
	)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request failed: %v", commonerrors.ErrExternalCall, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", commonerrors.ErrMalformedOutput)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}
