package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

const llmSystemPrompt = `You route utterances from an elderly-care voice assistant to a specialist.
Specialists: %s. Reply with JSON only: {"specialist": "<name or empty>", "confidence": <0..1>, "reason": "<short>"}.
Use an empty specialist when the orchestrator should answer directly.`

// LLMDetector classifies intent with a chat completion. Any API or parse
// failure degrades to the regex detector so routing never depends on the
// model being reachable.
type LLMDetector struct {
	client      openai.Client
	model       string
	specialists []string
	fallback    *RegexDetector
}

// NewLLMDetector creates an LLM-backed intent detector.
func NewLLMDetector(apiKey, model string, specialists []string) (*LLMDetector, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if len(specialists) == 0 {
		return nil, fmt.Errorf("specialist roster is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &LLMDetector{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		specialists: specialists,
		fallback:    NewRegexDetector(),
	}, nil
}

// Detect asks the model which specialist should take the turn.
func (d *LLMDetector) Detect(ctx context.Context, utterance string, history []string) (Result, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(fmt.Sprintf(llmSystemPrompt, strings.Join(d.specialists, ", "))),
	}
	if len(history) > 0 {
		messages = append(messages, openai.UserMessage("Recent context:\n"+strings.Join(history, "\n")))
	}
	messages = append(messages, openai.UserMessage(utterance))

	response, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(d.model),
		Messages: messages,
	})
	if err != nil {
		log.Warn().Err(err).Msg("LLM intent detection failed, falling back to regex")
		return d.fallback.Detect(ctx, utterance, history)
	}

	if len(response.Choices) == 0 {
		return d.fallback.Detect(ctx, utterance, history)
	}

	result, err := parseResult(response.Choices[0].Message.Content)
	if err != nil {
		log.Warn().Err(err).Msg("Unparseable intent response, falling back to regex")
		return d.fallback.Detect(ctx, utterance, history)
	}

	if result.Specialist != "" && !d.known(result.Specialist) {
		log.Warn().Str("specialist", result.Specialist).Msg("Model named unknown specialist, ignoring")
		result = Result{}
	}
	return result, nil
}

// Specialists returns the roster the detector routes to.
func (d *LLMDetector) Specialists() []string {
	return d.specialists
}

func (d *LLMDetector) known(name string) bool {
	for _, s := range d.specialists {
		if s == name {
			return true
		}
	}
	return false
}

// parseResult tolerates the model wrapping its JSON in a code fence.
func parseResult(content string) (Result, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return Result{}, fmt.Errorf("failed to parse intent result: %w", err)
	}
	return result, nil
}
