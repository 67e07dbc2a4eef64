package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gnemet/deckdraft/internal/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// Generator performs the single outbound provider call per user action.
// The API credential is not part of the Generator: it is passed into
// Generate and a fresh client is built around it every call, so nothing
// credential-shaped survives the request.
type Generator struct {
	settings config.ProviderSettings
	client   *http.Client
}

func NewGenerator(settings config.ProviderSettings) *Generator {
	return &Generator{
		settings: settings,
		client: &http.Client{
			Timeout: 60 * time.Second, // Long timeout for LLM generation
		},
	}
}

// Generate asks the configured provider for an outline of the given text.
// One request, no retry: any transport, auth or parse failure is terminal
// and yields no outline.
func (g *Generator) Generate(ctx context.Context, apiKey, text, guidance string) (*Outline, error) {
	prompt := BuildPrompt(text, guidance)

	var reply string
	var err error
	switch g.settings.Driver {
	case "gemini":
		reply, err = g.generateGemini(ctx, apiKey, prompt)
	case "openai", "":
		reply, err = g.generateOpenAI(ctx, apiKey, prompt)
	default:
		return nil, fmt.Errorf("unsupported ai driver %q", g.settings.Driver)
	}
	if err != nil {
		return nil, err
	}

	return Parse(reply)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

func (g *Generator) generateOpenAI(ctx context.Context, apiKey, prompt string) (string, error) {
	endpoint := g.settings.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}

	body, err := json.Marshal(chatRequest{
		Model: g.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: g.settings.Temperature,
		MaxTokens:   g.settings.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completion failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

func (g *Generator) generateGemini(ctx context.Context, apiKey, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(g.settings.Model)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}
	temp := float32(g.settings.Temperature)
	model.Temperature = &temp
	if g.settings.MaxTokens > 0 {
		maxTokens := int32(g.settings.MaxTokens)
		model.MaxOutputTokens = &maxTokens
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var reply bytes.Buffer
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			reply.WriteString(string(t))
		}
	}
	return reply.String(), nil
}
