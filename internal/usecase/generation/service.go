package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smm-studio/internal/domain"
	"smm-studio/internal/infra/metrics"
)

const (
	minCarouselSlides = 2
	maxCarouselSlides = 5
)

// SettingsProvider отдаёт актуальный профиль компании.
type SettingsProvider interface {
	Current() domain.CompanySettings
}

// Service реализует пайплайн генерации контента: идея → структура поста → кандидаты изображений.
type Service struct {
	text       domain.TextGenerator
	images     domain.ImageGenerator
	settings   SettingsProvider
	imageCount int
	log        zerolog.Logger
}

var _ domain.GenerationService = (*Service)(nil)

// NewService создаёт сервис генерации.
func NewService(text domain.TextGenerator, images domain.ImageGenerator, settings SettingsProvider, imageCount int, log zerolog.Logger) *Service {
	if imageCount <= 0 {
		imageCount = 4
	}
	return &Service{text: text, images: images, settings: settings, imageCount: imageCount, log: log}
}

// Generate превращает идею в готовый контент. Либо возвращается целиком
// собранный контент, либо ошибка; частичных результатов не бывает.
func (s *Service) Generate(ctx context.Context, idea domain.Idea) (domain.GeneratedContent, error) {
	start := time.Now()
	content, err := s.generate(ctx, idea)
	metrics.ObserveGeneration(string(idea.Variant), start, err)
	if err != nil {
		s.log.Error().Err(err).Str("variant", string(idea.Variant)).Msg("генерация не удалась")
		return domain.GeneratedContent{}, err
	}
	s.log.Info().Str("content_id", content.ID).Str("variant", string(idea.Variant)).Int("candidates", len(content.ImageURLs)).Msg("контент сгенерирован")
	return content, nil
}

func (s *Service) generate(ctx context.Context, idea domain.Idea) (domain.GeneratedContent, error) {
	if strings.TrimSpace(idea.Text) == "" {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindValidationFailure, "идея поста пуста", nil)
	}
	if !idea.AspectRatio.IsValid() {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindValidationFailure, fmt.Sprintf("неизвестное соотношение сторон %q", idea.AspectRatio), nil)
	}
	if !idea.Variant.IsValid() {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindValidationFailure, fmt.Sprintf("неизвестная форма поста %q", idea.Variant), nil)
	}

	settings := s.settings.Current()
	system := SystemInstruction(settings)

	post, err := s.generatePost(ctx, idea, system, settings)
	if err != nil {
		return domain.GeneratedContent{}, err
	}

	urls, err := s.generateCandidates(ctx, post.ImagePrompt(), idea.AspectRatio)
	if err != nil {
		return domain.GeneratedContent{}, err
	}

	return domain.GeneratedContent{
		ID:               uuid.NewString(),
		Post:             post,
		ImageURLs:        urls,
		SelectedImageURL: urls[0],
		AspectRatio:      idea.AspectRatio,
	}, nil
}

func (s *Service) generatePost(ctx context.Context, idea domain.Idea, system string, settings domain.CompanySettings) (domain.GeneratedPost, error) {
	switch idea.Variant {
	case domain.VariantImage:
		raw, err := s.text.GenerateStructured(ctx, system, ImagePostPrompt(idea.Text, settings), ImagePostSchema)
		if err != nil {
			return domain.GeneratedPost{}, err
		}
		return decodeImagePost(raw)
	case domain.VariantWritten:
		raw, err := s.text.GenerateStructured(ctx, system, WrittenPostPrompt(idea.Text, settings), ImagePostSchema)
		if err != nil {
			return domain.GeneratedPost{}, err
		}
		return decodeImagePost(raw)
	case domain.VariantCarousel:
		raw, err := s.text.GenerateStructured(ctx, system, CarouselPrompt(idea.Text, settings), CarouselSchema)
		if err != nil {
			return domain.GeneratedPost{}, err
		}
		return decodeCarousel(raw)
	}
	return domain.GeneratedPost{}, domain.NewGenerationError(domain.KindValidationFailure, fmt.Sprintf("неизвестная форма поста %q", idea.Variant), nil)
}

func (s *Service) generateCandidates(ctx context.Context, prompt string, aspect domain.AspectRatio) ([]string, error) {
	images, err := s.images.GenerateImages(ctx, prompt, aspect, s.imageCount)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, domain.NewGenerationError(domain.KindTransportFailure, "генератор не вернул ни одного изображения", nil)
	}
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, domain.DataURL(img))
	}
	return urls, nil
}

// CaptionForImage строит контент вокруг готового изображения: генерация
// визуала пропускается, единственным кандидатом становится переданный URI.
func (s *Service) CaptionForImage(ctx context.Context, imageURL, description string) (domain.GeneratedContent, error) {
	img, err := domain.ParseDataURL(imageURL)
	if err != nil {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindValidationFailure, "изображение должно быть передано как data URI", err)
	}
	settings := s.settings.Current()
	raw, err := s.text.GenerateStructuredWithImage(ctx, SystemInstruction(settings), CaptionPrompt(settings), CaptionSchema, img)
	if err != nil {
		return domain.GeneratedContent{}, err
	}
	var payload struct {
		Caption string `json:"caption"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindValidationFailure, "ответ не соответствует схеме подписи", err)
	}
	if strings.TrimSpace(payload.Caption) == "" {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindValidationFailure, "пустая подпись в ответе модели", nil)
	}
	return domain.GeneratedContent{
		ID:               uuid.NewString(),
		Post:             domain.GeneratedPost{Type: domain.PostTypeImage, Image: &domain.ImagePost{ImagePrompt: description, Caption: payload.Caption}},
		ImageURLs:        []string{imageURL},
		SelectedImageURL: imageURL,
		AspectRatio:      domain.AspectSquare,
	}, nil
}

// Suggest предлагает идею следующего поста с учётом недавних тем.
func (s *Service) Suggest(ctx context.Context, recentTopics []string) (string, error) {
	settings := s.settings.Current()
	text, err := s.text.GenerateText(ctx, SystemInstruction(settings), SuggestPrompt(recentTopics, settings))
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(text), `"«»`), nil
}

// AnalyzeTestimonial извлекает из отзыва 2-4 тега.
func (s *Service) AnalyzeTestimonial(ctx context.Context, testimonial string) ([]string, error) {
	if strings.TrimSpace(testimonial) == "" {
		return nil, domain.NewGenerationError(domain.KindValidationFailure, "пустой отзыв", nil)
	}
	settings := s.settings.Current()
	raw, err := s.text.GenerateStructured(ctx, SystemInstruction(settings), TestimonialPrompt(testimonial, settings), TagsSchema)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.NewGenerationError(domain.KindValidationFailure, "ответ не соответствует схеме тегов", err)
	}
	tags := make([]string, 0, len(payload.Tags))
	for _, tag := range payload.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	if len(tags) == 0 {
		return nil, domain.NewGenerationError(domain.KindValidationFailure, "модель не вернула ни одного тега", nil)
	}
	return tags, nil
}

func decodeImagePost(raw json.RawMessage) (domain.GeneratedPost, error) {
	var payload struct {
		ImagePrompt string `json:"image_prompt"`
		Caption     string `json:"caption"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.GeneratedPost{}, domain.NewGenerationError(domain.KindValidationFailure, "ответ не соответствует схеме поста", err)
	}
	if strings.TrimSpace(payload.ImagePrompt) == "" || strings.TrimSpace(payload.Caption) == "" {
		return domain.GeneratedPost{}, domain.NewGenerationError(domain.KindValidationFailure, "в ответе отсутствует промпт или подпись", nil)
	}
	return domain.GeneratedPost{
		Type:  domain.PostTypeImage,
		Image: &domain.ImagePost{ImagePrompt: payload.ImagePrompt, Caption: payload.Caption},
	}, nil
}

func decodeCarousel(raw json.RawMessage) (domain.GeneratedPost, error) {
	var payload struct {
		CoverImagePrompt string                 `json:"cover_image_prompt"`
		Slides           []domain.CarouselSlide `json:"slides"`
		Caption          string                 `json:"caption"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.GeneratedPost{}, domain.NewGenerationError(domain.KindValidationFailure, "ответ не соответствует схеме карусели", err)
	}
	if strings.TrimSpace(payload.CoverImagePrompt) == "" || strings.TrimSpace(payload.Caption) == "" {
		return domain.GeneratedPost{}, domain.NewGenerationError(domain.KindValidationFailure, "в ответе отсутствует обложка или подпись", nil)
	}
	if len(payload.Slides) < minCarouselSlides || len(payload.Slides) > maxCarouselSlides {
		return domain.GeneratedPost{}, domain.NewGenerationError(domain.KindValidationFailure, fmt.Sprintf("карусель должна содержать от %d до %d слайдов, получено %d", minCarouselSlides, maxCarouselSlides, len(payload.Slides)), nil)
	}
	for i, slide := range payload.Slides {
		if strings.TrimSpace(slide.Title) == "" || strings.TrimSpace(slide.Body) == "" {
			return domain.GeneratedPost{}, domain.NewGenerationError(domain.KindValidationFailure, fmt.Sprintf("слайд %d не заполнен", i+1), nil)
		}
	}
	return domain.GeneratedPost{
		Type:     domain.PostTypeCarousel,
		Carousel: &domain.CarouselPost{CoverImagePrompt: payload.CoverImagePrompt, Slides: payload.Slides, Caption: payload.Caption},
	}, nil
}
