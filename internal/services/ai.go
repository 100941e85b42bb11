package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ChatCompleter is the part of the OpenAI client the AI service needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIService struct {
	client ChatCompleter
	model  string
	now    func() time.Time
}

// TaskSuggestion is a task draft proposed by the model. It is never persisted.
type TaskSuggestion struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
}

type suggestionEnvelope struct {
	Tasks []TaskSuggestion `json:"tasks"`
}

func NewAIService(apiKey, model string) *AIService {
	return NewAIServiceWithClient(openai.NewClient(apiKey), model)
}

// NewAIServiceWithClient builds the service around an existing client.
func NewAIServiceWithClient(client ChatCompleter, model string) *AIService {
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client: client,
		model:  model,
		now:    time.Now,
	}
}

const suggestionPrompt = `You are a task extraction assistant. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Answer with a JSON object of this shape:
{
  "tasks": [
    {
      "title": "short task title",
      "description": "details of the task",
      "priority": "one of low, medium, high, urgent",
      "dueDate": "RFC3339 timestamp such as 2025-10-28T23:59:59Z, or null when no deadline is given",
      "tags": ["short", "labels"]
    }
  ]
}

Rules:
- Return {"tasks": []} when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") into absolute timestamps
- Return only JSON, no commentary`

// SuggestTasks asks the model to extract task drafts from free text.
func (s *AIService) SuggestTasks(ctx context.Context, text string) ([]TaskSuggestion, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(suggestionPrompt, s.now().UTC().Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var envelope suggestionEnvelope
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return envelope.Tasks, nil
}
