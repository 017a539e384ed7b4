package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"smm-studio/internal/domain"
)

// Stub имитирует генератор текста для локальной разработки без ключа API.
type Stub struct{}

var _ domain.TextGenerator = (*Stub)(nil)

// NewStub создаёт заглушку.
func NewStub() *Stub {
	return &Stub{}
}

// GenerateStructured возвращает детерминированный JSON под известные схемы.
func (s *Stub) GenerateStructured(_ context.Context, _, prompt string, schema json.RawMessage) (json.RawMessage, error) {
	topic := clipRunes(strings.TrimSpace(prompt), 80)
	switch {
	case bytes.Contains(schema, []byte("cover_image_prompt")):
		payload := map[string]any{
			"cover_image_prompt": fmt.Sprintf("Обложка карусели: %s", topic),
			"slides": []map[string]string{
				{"title": "Слайд 1", "body": "Первый тезис."},
				{"title": "Слайд 2", "body": "Второй тезис."},
				{"title": "Слайд 3", "body": "Третий тезис."},
			},
			"caption": "Листайте карусель и пишите нам в директ.",
		}
		return mustMarshal(payload), nil
	case bytes.Contains(schema, []byte("image_prompt")):
		payload := map[string]string{
			"image_prompt": fmt.Sprintf("Реалистичное фото: %s", topic),
			"caption":      "Короткая подпись с призывом к действию.",
		}
		return mustMarshal(payload), nil
	case bytes.Contains(schema, []byte("tags")):
		return mustMarshal(map[string][]string{"tags": {"сервис", "качество"}}), nil
	default:
		return mustMarshal(map[string]string{"caption": "Подпись к изображению."}), nil
	}
}

// GenerateStructuredWithImage отдаёт тот же результат, игнорируя изображение.
func (s *Stub) GenerateStructuredWithImage(ctx context.Context, system, prompt string, schema json.RawMessage, _ domain.GeneratedImage) (json.RawMessage, error) {
	return s.GenerateStructured(ctx, system, prompt, schema)
}

// GenerateText возвращает слегка подчищенный исходный текст.
func (s *Stub) GenerateText(_ context.Context, _, prompt string) (string, error) {
	text := strings.TrimSpace(prompt)
	if text == "" {
		return "Идея для следующего поста: расскажите о закулисье вашей работы.", nil
	}
	return text, nil
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func clipRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
