package revision

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"smm-studio/internal/domain"
	"smm-studio/internal/infra/metrics"
	"smm-studio/internal/usecase/generation"
)

// Service реализует пополевые правки рабочей копии. Каждая операция владеет
// своим набором полей, не трогает аргумент и возвращает новое значение,
// поэтому результаты параллельных правок разных полей коммутируют.
type Service struct {
	text       domain.TextGenerator
	images     domain.ImageGenerator
	settings   generation.SettingsProvider
	imageCount int
	log        zerolog.Logger
}

// NewService создаёт сервис правок.
func NewService(text domain.TextGenerator, images domain.ImageGenerator, settings generation.SettingsProvider, imageCount int, log zerolog.Logger) *Service {
	if imageCount <= 0 {
		imageCount = 4
	}
	return &Service{text: text, images: images, settings: settings, imageCount: imageCount, log: log}
}

// ReviseImage перегенерирует кандидатов по переданному либо текущему промпту.
// Владеет полями: ImageURLs, SelectedImageURL и управляющий промпт ветки.
func (s *Service) ReviseImage(ctx context.Context, content domain.GeneratedContent, promptOverride string) (domain.GeneratedContent, error) {
	out, err := s.reviseImage(ctx, content, promptOverride)
	metrics.ObserveRevision("revise_image", err)
	return out, err
}

func (s *Service) reviseImage(ctx context.Context, content domain.GeneratedContent, promptOverride string) (domain.GeneratedContent, error) {
	prompt := strings.TrimSpace(promptOverride)
	if prompt == "" {
		prompt = content.Post.ImagePrompt()
	}
	if prompt == "" {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindValidationFailure, "у контента нет промпта изображения", nil)
	}

	images, err := s.images.GenerateImages(ctx, prompt, content.AspectRatio, s.imageCount)
	if err != nil {
		return domain.GeneratedContent{}, err
	}
	if len(images) == 0 {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindTransportFailure, "генератор не вернул ни одного изображения", nil)
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, domain.DataURL(img))
	}

	out := content.Clone()
	out.ImageURLs = urls
	out.SelectedImageURL = urls[0]
	out.Post.SetImagePrompt(prompt)
	return out, nil
}

// Proofread вычитывает переданный текст и заменяет только подпись.
// Изображения и промпты остаются нетронутыми.
func (s *Service) Proofread(ctx context.Context, content domain.GeneratedContent, text string) (domain.GeneratedContent, error) {
	out, err := s.proofread(ctx, content, text)
	metrics.ObserveRevision("proofread", err)
	return out, err
}

func (s *Service) proofread(ctx context.Context, content domain.GeneratedContent, text string) (domain.GeneratedContent, error) {
	if strings.TrimSpace(text) == "" {
		return domain.GeneratedContent{}, domain.NewGenerationError(domain.KindValidationFailure, "пустой текст для вычитки", nil)
	}
	settings := s.settings.Current()
	revised, err := s.text.GenerateText(ctx, generation.SystemInstruction(settings), generation.ProofreadPrompt(text, settings))
	if err != nil {
		return domain.GeneratedContent{}, err
	}
	out := content.Clone()
	out.Post.SetCaption(strings.TrimSpace(revised))
	return out, nil
}

// SelectImage — чисто локальная операция выбора кандидата.
func (s *Service) SelectImage(content domain.GeneratedContent, uri string) (domain.GeneratedContent, error) {
	if !content.HasImageURL(uri) {
		metrics.ObserveRevision("select_image", domain.ErrInvalidSelection)
		return content, domain.ErrInvalidSelection
	}
	out := content.Clone()
	out.SelectedImageURL = uri
	metrics.ObserveRevision("select_image", nil)
	return out, nil
}

// MergeImageRevision накладывает поля, которыми владеет правка изображения,
// на последнюю известную копию. Правка чужой копии отклоняется.
func MergeImageRevision(latest, revised domain.GeneratedContent) (domain.GeneratedContent, error) {
	if latest.ID != revised.ID {
		return latest, domain.ErrStaleRevision
	}
	out := latest.Clone()
	out.ImageURLs = append([]string(nil), revised.ImageURLs...)
	out.SelectedImageURL = revised.SelectedImageURL
	out.Post.SetImagePrompt(revised.Post.ImagePrompt())
	return out, nil
}

// MergeCaption накладывает подпись правки на последнюю известную копию.
func MergeCaption(latest, revised domain.GeneratedContent) (domain.GeneratedContent, error) {
	if latest.ID != revised.ID {
		return latest, domain.ErrStaleRevision
	}
	out := latest.Clone()
	out.Post.SetCaption(revised.Post.Caption())
	return out, nil
}
