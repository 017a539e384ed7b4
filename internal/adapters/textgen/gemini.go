package textgen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"smm-studio/internal/domain"
	"smm-studio/internal/infra/gemini"
)

type contentClient interface {
	GenerateContent(ctx context.Context, model string, req gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error)
}

// Gemini реализует domain.TextGenerator через Generative Language API.
// Структурированные запросы идут в основную модель, простой текст — в быструю.
type Gemini struct {
	client    contentClient
	model     string
	fastModel string
	timeout   time.Duration
}

var _ domain.TextGenerator = (*Gemini)(nil)

// NewGemini создаёт провайдер генерации текста.
func NewGemini(client contentClient, model, fastModel string, timeout time.Duration) *Gemini {
	if model == "" {
		model = "gemini-2.5-pro"
	}
	if fastModel == "" {
		fastModel = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gemini{client: client, model: model, fastModel: fastModel, timeout: timeout}
}

// GenerateStructured запрашивает JSON по схеме.
func (g *Gemini) GenerateStructured(ctx context.Context, system, prompt string, schema json.RawMessage) (json.RawMessage, error) {
	req := gemini.GenerateContentRequest{
		SystemInstruction: systemContent(system),
		Contents:          []gemini.Content{{Role: "user", Parts: []gemini.Part{{Text: prompt}}}},
		GenerationConfig: &gemini.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	return g.structured(ctx, req)
}

// GenerateStructuredWithImage запрашивает JSON по схеме с изображением на входе.
func (g *Gemini) GenerateStructuredWithImage(ctx context.Context, system, prompt string, schema json.RawMessage, image domain.GeneratedImage) (json.RawMessage, error) {
	parts := []gemini.Part{
		{InlineData: &gemini.InlineData{MimeType: image.MimeType, Data: base64.StdEncoding.EncodeToString(image.Bytes)}},
		{Text: prompt},
	}
	req := gemini.GenerateContentRequest{
		SystemInstruction: systemContent(system),
		Contents:          []gemini.Content{{Role: "user", Parts: parts}},
		GenerationConfig: &gemini.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	return g.structured(ctx, req)
}

// GenerateText возвращает обычный текст без схемы.
func (g *Gemini) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	temperature := 0.3
	req := gemini.GenerateContentRequest{
		SystemInstruction: systemContent(system),
		Contents:          []gemini.Content{{Role: "user", Parts: []gemini.Part{{Text: prompt}}}},
		GenerationConfig:  &gemini.GenerationConfig{Temperature: &temperature},
	}
	resp, err := g.client.GenerateContent(ctx, g.fastModel, req)
	if err != nil {
		return "", mapGeminiError(err, "генерация текста")
	}
	text := resp.Text()
	if text == "" {
		return "", domain.NewGenerationError(domain.KindValidationFailure, "модель вернула пустой ответ", nil)
	}
	return text, nil
}

func (g *Gemini) structured(ctx context.Context, req gemini.GenerateContentRequest) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.GenerateContent(ctx, g.model, req)
	if err != nil {
		return nil, mapGeminiError(err, "генерация структурированного ответа")
	}
	text := resp.Text()
	if text == "" {
		return nil, domain.NewGenerationError(domain.KindValidationFailure, "модель вернула пустой ответ", nil)
	}
	raw := ExtractJSON(text)
	if !json.Valid(raw) {
		return nil, domain.NewGenerationError(domain.KindValidationFailure, "ответ модели не является корректным JSON", nil)
	}
	return raw, nil
}

func systemContent(system string) *gemini.Content {
	if strings.TrimSpace(system) == "" {
		return nil
	}
	return &gemini.Content{Parts: []gemini.Part{{Text: system}}}
}

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON снимает markdown-ограждение, если модель обернула в него JSON.
func ExtractJSON(text string) json.RawMessage {
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		return json.RawMessage(m[1])
	}
	return json.RawMessage(strings.TrimSpace(text))
}

func mapGeminiError(err error, message string) error {
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		if apiErr.QuotaExhausted() {
			return domain.NewGenerationError(domain.KindQuotaExceeded, "исчерпана квота генеративного сервиса", err)
		}
	}
	return domain.NewGenerationError(domain.KindTransportFailure, message, err)
}
