// Package extract turns unstructured email text into structured booking
// fields by delegating to an LLM. The model is instructed to answer with
// strict JSON or a refusal sentinel; anything it says that fails to parse is
// treated as "not a travel booking", never as an error worth retrying.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// notTravel is the refusal sentinel the model is told to answer with.
const notTravel = "NOT_TRAVEL"

const systemPrompt = `You extract travel booking details from emails.
If the email is a travel booking confirmation (flight, train, hotel, restaurant,
tour, rental), respond with ONLY a JSON object with these keys:
  title, category (one of transport/food/activity/lodging), date (YYYY-MM-DD),
  start_time (HH:MM, optional), end_time (HH:MM, optional), location (optional),
  confirmation_number (optional), check_out_date (YYYY-MM-DD, optional),
  notes (optional).
If it is not a travel booking, respond with exactly ` + notTravel + `.`

// Booking is the structured result of a successful extraction. All fields are
// strings as produced by the model; the import pipeline validates them.
type Booking struct {
	Title              string `json:"title"`
	Category           string `json:"category"`
	Date               string `json:"date"`
	StartTime          string `json:"start_time,omitempty"`
	EndTime            string `json:"end_time,omitempty"`
	Location           string `json:"location,omitempty"`
	ConfirmationNumber string `json:"confirmation_number,omitempty"`
	CheckOutDate       string `json:"check_out_date,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// Extractor is the interface the import pipeline consumes.
type Extractor interface {
	// Extract returns the booking and true, or false when the text is not a
	// travel booking. Errors are transport-level failures; the caller decides
	// whether they are fatal.
	Extract(ctx context.Context, text string) (Booking, bool, error)
}

// OpenAIExtractor implements Extractor on the OpenAI chat completions API.
type OpenAIExtractor struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAIExtractor constructs an extractor with the given API key.
func NewOpenAIExtractor(apiKey string) *OpenAIExtractor {
	return &OpenAIExtractor{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, text string) (Booking, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	completion, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return Booking{}, false, fmt.Errorf("extract.OpenAIExtractor.Extract: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Booking{}, false, nil
	}

	booking, ok := ParseResponse(completion.Choices[0].Message.Content)
	return booking, ok, nil
}

// ParseResponse interprets the model's reply. The refusal sentinel, an empty
// reply, and malformed JSON all mean "not a travel booking"; a model that
// goes off script must not break a scan.
func ParseResponse(content string) (Booking, bool) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, "{") {
		return Booking{}, false
	}

	var b Booking
	if err := json.Unmarshal([]byte(content), &b); err != nil {
		return Booking{}, false
	}
	if b.Title == "" || b.Date == "" {
		return Booking{}, false
	}
	return b, true
}
