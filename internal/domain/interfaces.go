package domain

import (
	"context"
	"encoding/json"
	"time"
)

// GeneratedImage — одно изображение, возвращённое генератором.
type GeneratedImage struct {
	Bytes    []byte
	MimeType string
}

// TextGenerator — внешний сервис структурированной генерации текста.
type TextGenerator interface {
	// GenerateStructured возвращает JSON, соответствующий переданной схеме.
	GenerateStructured(ctx context.Context, system, prompt string, schema json.RawMessage) (json.RawMessage, error)
	// GenerateText возвращает обычный текст без схемы.
	GenerateText(ctx context.Context, system, prompt string) (string, error)
	// GenerateStructuredWithImage — то же, что GenerateStructured, но с изображением на входе.
	GenerateStructuredWithImage(ctx context.Context, system, prompt string, schema json.RawMessage, image GeneratedImage) (json.RawMessage, error)
}

// ImageGenerator — внешний сервис генерации изображений.
type ImageGenerator interface {
	// GenerateImages возвращает count независимых сэмплов по одному промпту.
	GenerateImages(ctx context.Context, prompt string, aspect AspectRatio, count int) ([]GeneratedImage, error)
}

// KV — долговременное хранилище ключ→JSON. Get возвращает ErrNotFound при отсутствии ключа.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// PublishQueue — очередь заданий на публикацию запланированных постов.
type PublishQueue interface {
	Enqueue(ctx context.Context, job PublishJob) error
	Pop(ctx context.Context) (PublishJob, error)
}

// GenerationService отвечает за превращение идеи в готовый контент.
type GenerationService interface {
	Generate(ctx context.Context, idea Idea) (GeneratedContent, error)
	CaptionForImage(ctx context.Context, imageURL, description string) (GeneratedContent, error)
	Suggest(ctx context.Context, recentTopics []string) (string, error)
	AnalyzeTestimonial(ctx context.Context, testimonial string) ([]string, error)
}

// LifecycleStore владеет тремя коллекциями жизненного цикла.
type LifecycleStore interface {
	SaveDraft(ctx context.Context, content GeneratedContent) error
	Schedule(ctx context.Context, content GeneratedContent, when time.Time, platforms []Platform) (ScheduledPost, error)
	Publish(ctx context.Context, content GeneratedContent, platforms []Platform) (PublishedPost, error)
	Drafts() []Draft
	Scheduled() []ScheduledPost
	Published() []PublishedPost
}
