package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pion/logging"
	"google.golang.org/genai"

	"github.com/samsaffron/genweb/internal/log"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Provider using the Google Gemini API.
type GeminiProvider struct {
	apiKey         string
	model          string
	thinkingBudget *int32 // for Gemini 2.5: 0 disables thinking
	log            logging.LeveledLogger
}

// parseGeminiThinking returns the thinking budget for a model. Gemini 2.5
// models stream markup faster with thinking disabled; a "-thinking" suffix
// keeps the model default.
func parseGeminiThinking(model string) (string, *int32) {
	if strings.HasSuffix(model, "-thinking") {
		return strings.TrimSuffix(model, "-thinking"), nil
	}
	if strings.HasPrefix(model, "gemini-2.5") {
		zero := int32(0)
		return model, &zero
	}
	return model, nil
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	baseModel, budget := parseGeminiThinking(model)
	return &GeminiProvider{
		apiKey:         apiKey,
		model:          baseModel,
		thinkingBudget: budget,
		log:            log.For(log.ScopeLLM),
	}
}

func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("Gemini (%s)", p.model)
}

func (p *GeminiProvider) Credential() string {
	return "api_key"
}

func (p *GeminiProvider) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{APIKey: p.apiKey})
}

func (p *GeminiProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		client, err := p.newClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create gemini client: %w", err)
		}

		system, contents := buildGeminiContents(req.Messages)
		if len(contents) == 0 {
			return fmt.Errorf("no user content provided")
		}

		config := &genai.GenerateContentConfig{}
		if system != "" {
			config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}
		if req.Temperature > 0 {
			t := req.Temperature
			config.Temperature = &t
		}
		if req.MaxOutputTokens > 0 {
			config.MaxOutputTokens = int32(req.MaxOutputTokens)
		}
		if p.thinkingBudget != nil {
			config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: p.thinkingBudget}
		}

		model := chooseModel(req.Model, p.model)
		p.log.Debugf("gemini stream model=%s contents=%d", model, len(contents))

		var lastResp *genai.GenerateContentResponse
		for resp, err := range client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				return fmt.Errorf("gemini streaming error: %w", err)
			}
			lastResp = resp
			if text := resp.Text(); text != "" {
				select {
				case events <- Event{Type: EventTextDelta, Text: text}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		emitGeminiUsage(events, lastResp)
		events <- Event{Type: EventDone}
		return nil
	}), nil
}

func emitGeminiUsage(events chan<- Event, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	if resp.UsageMetadata.TotalTokenCount > 0 {
		events <- Event{Type: EventUsage, Use: &Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}}
	}
}

func buildGeminiContents(messages []Message) (string, []*genai.Content) {
	system, turns := splitSystem(messages)
	contents := make([]*genai.Content, 0, len(turns))
	for _, msg := range turns {
		if msg.Role == RoleAssistant {
			contents = append(contents, genai.NewContentFromText(msg.Text, genai.RoleModel))
			continue
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, genai.RoleUser))
	}
	return system, contents
}
