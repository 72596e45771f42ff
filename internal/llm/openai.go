package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pion/logging"

	"github.com/samsaffron/genweb/internal/log"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4.1"

// OpenAIProvider implements Provider using the Chat Completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	log    logging.LeveledLogger
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
		model:  model,
		log:    log.For(log.ScopeLLM),
	}
}

func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("OpenAI (%s)", p.model)
}

func (p *OpenAIProvider) Credential() string {
	return "api_key"
}

func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		messages := buildOpenAIMessages(req.Messages)
		if len(messages) == 0 {
			return fmt.Errorf("no user content provided")
		}

		params := openai.ChatCompletionNewParams{
			Model:    chooseModel(req.Model, p.model),
			Messages: messages,
			StreamOptions: openai.ChatCompletionStreamOptionsParam{
				IncludeUsage: openai.Bool(true),
			},
		}
		if req.Temperature > 0 {
			params.Temperature = openai.Float(float64(req.Temperature))
		}
		if req.MaxOutputTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
		}
		p.log.Debugf("openai stream model=%s messages=%d", params.Model, len(messages))

		var lastUsage *Usage
		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if chunk.Usage.TotalTokens > 0 {
				lastUsage = &Usage{
					InputTokens:  int(chunk.Usage.PromptTokens),
					OutputTokens: int(chunk.Usage.CompletionTokens),
				}
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case events <- Event{Type: EventTextDelta, Text: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := stream.Err(); err != nil {
			return fmt.Errorf("openai streaming error: %w", err)
		}
		if lastUsage != nil {
			events <- Event{Type: EventUsage, Use: lastUsage}
		}
		events <- Event{Type: EventDone}
		return nil
	}), nil
}

func buildOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	system, turns := splitSystem(messages)
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range turns {
		if msg.Role == RoleAssistant {
			out = append(out, openai.AssistantMessage(msg.Text))
			continue
		}
		out = append(out, openai.UserMessage(msg.Text))
	}
	return out
}
