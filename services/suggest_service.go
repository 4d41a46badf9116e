package services

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"pinboard/utils/errors"
)

const suggestSystemPrompt = "You are a helpful assistant that generates concise, informative descriptions for map locations."

// completionClient is the part of the OpenAI client used here; narrowed
// so tests can stub the upstream.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// SuggestService drafts pin descriptions by forwarding a prompt to a chat
// completion upstream. Advisory only: callers may edit or discard the
// result. No retry, no caching.
type SuggestService struct {
	client completionClient
}

func NewSuggestService(apiKey string) *SuggestService {
	return &SuggestService{client: openai.NewClient(apiKey)}
}

// Suggest returns a short generated description for a pin with the given
// title at the given coordinates.
func (s *SuggestService) Suggest(ctx context.Context, title string, lat, lng float64) (string, error) {
	prompt := fmt.Sprintf(`Given a location with title %q at coordinates (%v, %v), `+
		`suggest a brief, engaging description for this pin on a map. Consider the type of location `+
		`and its potential significance. Keep it under 100 words.`, title, lat, lng)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT3Dot5Turbo,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	if err != nil {
		return "", errors.NewUpstreamError("Failed to generate description", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewUpstreamError("Failed to generate description", fmt.Errorf("completion returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
