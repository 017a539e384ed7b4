package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"smm-studio/internal/domain"
)

// SystemInstruction собирает системный промпт из профиля компании.
func SystemInstruction(s domain.CompanySettings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ты специалист по digital-маркетингу и ведению соцсетей компании «%s».\n\n", s.CompanyName)
	b.WriteString("О КОМПАНИИ:\n")
	fmt.Fprintf(&b, "- Название: %s\n", s.CompanyName)
	if s.Slogan != "" {
		fmt.Fprintf(&b, "- Слоган: %s\n", s.Slogan)
	}
	if s.Location != "" {
		fmt.Fprintf(&b, "- Локация: %s. Контент должен откликаться местной аудитории.\n", s.Location)
	}
	if s.Services != "" {
		fmt.Fprintf(&b, "- Услуги: %s\n", s.Services)
	}
	b.WriteString("\nТОН И КОММУНИКАЦИЯ:\n")
	fmt.Fprintf(&b, "- Стиль: %s\n", s.VoiceTone)
	b.WriteString("- Задача: выстраивать связь с клиентом, а не продавать в лоб.\n")
	b.WriteString("\nПРАВИЛА:\n")
	fmt.Fprintf(&b, "- В каждой подписи обязателен призыв к действию: «%s».\n", s.CTA)
	if s.Hashtags != "" {
		fmt.Fprintf(&b, "- Используй хэштеги: %s\n", s.Hashtags)
	}
	b.WriteString("- Тексты короткие и ёмкие: для подписи 2-3 предложения, для слайдов — тезисы.\n")
	b.WriteString("- Промпты изображений описывают реалистичные, чистые, хорошо освещённые сцены без футуристики.\n")
	return b.String()
}

// ImagePostPrompt — задание на пост с изображением.
func ImagePostPrompt(idea string, s domain.CompanySettings) string {
	return fmt.Sprintf(`Базируясь на идее «%s», создай пост для компании «%s».
Сгенерируй детальный промпт реалистичного изображения и короткую эмоциональную подпись с CTA и хэштегами, следуя всем правилам тона и визуального стиля.`, idea, s.CompanyName)
}

// WrittenPostPrompt — задание на пост с текстом поверх изображения.
func WrittenPostPrompt(idea string, s domain.CompanySettings) string {
	return fmt.Sprintf(`Создай пост с акцентом на текст поверх изображения по идее: «%s».
Сгенерируй промпт фонового изображения — сдержанного, чистого, связанного с темой и пригодного для наложения текста.
Затем создай подпись — это основной текст, который будет нанесён на изображение. Включи CTA и хэштеги.`, idea)
}

// CarouselPrompt — задание на карусель.
func CarouselPrompt(idea string, s domain.CompanySettings) string {
	return fmt.Sprintf(`Создай пост-карусель из 3-5 слайдов по идее: «%s».
Сгенерируй промпт для обложки карусели. Для каждого слайда придумай короткий заголовок и ёмкий текст.
Заверши общей подписью к посту с CTA и хэштегами.`, idea)
}

// CaptionPrompt — задание на подпись к готовому изображению.
func CaptionPrompt(s domain.CompanySettings) string {
	return `Проанализируй это изображение и создай к нему креативную и уместную подпись в тоне компании.
Подпись должна быть короткой, эмоциональной, с CTA и хэштегами.`
}

// SuggestPrompt — задание на проактивную идею следующего поста.
func SuggestPrompt(recentTopics []string, s domain.CompanySettings) string {
	return fmt.Sprintf(`Последние посты компании «%s» были на темы [%s].
Предложи креативную и уместную идею следующего поста — одну короткую прямую фразу, пригодную как отправная точка для контента. Не повторяй недавние темы.`, s.CompanyName, strings.Join(recentTopics, ", "))
}

// TestimonialPrompt — задание на разбор отзыва клиента.
func TestimonialPrompt(testimonial string, s domain.CompanySettings) string {
	return fmt.Sprintf(`Проанализируй отзыв клиента компании «%s»: «%s».
Выдели 2-4 тега или ключевые фразы, которые резюмируют упомянутые плюсы.`, s.CompanyName, testimonial)
}

// ProofreadPrompt — задание на вычитку подписи.
func ProofreadPrompt(text string, s domain.CompanySettings) string {
	return fmt.Sprintf(`Вычитай и улучши следующий текст поста, сохранив тон компании «%s».
Исправь грамматику, повысь ясность и выразительность, но не меняй смысл. Верни только готовый текст. Текст: «%s»`, s.CompanyName, text)
}

// Схемы структурированных ответов в формате responseSchema Gemini.
var (
	ImagePostSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "image_prompt": {"type": "STRING", "description": "Детальный промпт реалистичного изображения по идее поста."},
    "caption": {"type": "STRING", "description": "Короткая подпись с CTA и хэштегами."}
  },
  "required": ["image_prompt", "caption"]
}`)

	CarouselSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "cover_image_prompt": {"type": "STRING", "description": "Промпт обложки карусели."},
    "slides": {
      "type": "ARRAY",
      "description": "Слайды карусели.",
      "items": {
        "type": "OBJECT",
        "properties": {
          "title": {"type": "STRING", "description": "Короткий заголовок слайда."},
          "body": {"type": "STRING", "description": "Ёмкий текст слайда."}
        },
        "required": ["title", "body"]
      }
    },
    "caption": {"type": "STRING", "description": "Общая подпись поста."}
  },
  "required": ["cover_image_prompt", "slides", "caption"]
}`)

	CaptionSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "caption": {"type": "STRING", "description": "Подпись к изображению."}
  },
  "required": ["caption"]
}`)

	TagsSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "tags": {"type": "ARRAY", "description": "2-4 тега из отзыва.", "items": {"type": "STRING"}}
  },
  "required": ["tags"]
}`)
)
