package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"smm-studio/internal/domain"
)

type stubText struct {
	structured    json.RawMessage
	structuredErr error
	text          string
	textErr       error

	structuredCalls int
	lastPrompt      string
}

func (s *stubText) GenerateStructured(_ context.Context, _, prompt string, _ json.RawMessage) (json.RawMessage, error) {
	s.structuredCalls++
	s.lastPrompt = prompt
	return s.structured, s.structuredErr
}

func (s *stubText) GenerateText(context.Context, string, string) (string, error) {
	return s.text, s.textErr
}

func (s *stubText) GenerateStructuredWithImage(_ context.Context, _, prompt string, _ json.RawMessage, _ domain.GeneratedImage) (json.RawMessage, error) {
	s.structuredCalls++
	s.lastPrompt = prompt
	return s.structured, s.structuredErr
}

type stubImages struct {
	count int
	err   error

	calls      int
	lastPrompt string
	lastAspect domain.AspectRatio
}

func (s *stubImages) GenerateImages(_ context.Context, prompt string, aspect domain.AspectRatio, count int) ([]domain.GeneratedImage, error) {
	s.calls++
	s.lastPrompt = prompt
	s.lastAspect = aspect
	if s.err != nil {
		return nil, s.err
	}
	n := s.count
	if n < 0 {
		n = 0
	} else if n == 0 {
		n = count
	}
	out := make([]domain.GeneratedImage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.GeneratedImage{Bytes: []byte(fmt.Sprintf("img-%d", i)), MimeType: "image/png"})
	}
	return out, nil
}

type fixedSettings struct{}

func (fixedSettings) Current() domain.CompanySettings { return domain.DefaultCompanySettings() }

func newTestService(text *stubText, images *stubImages) *Service {
	return NewService(text, images, fixedSettings{}, 4, zerolog.Nop())
}

func TestGenerateImagePost(t *testing.T) {
	text := &stubText{structured: json.RawMessage(`{"image_prompt":"закат над лавандовым полем","caption":"Новая коллекция уже в продаже"}`)}
	images := &stubImages{}
	service := newTestService(text, images)

	content, err := service.Generate(context.Background(), domain.Idea{Text: "анонс коллекции", AspectRatio: domain.AspectSquare, Variant: domain.VariantImage})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if content.ID == "" {
		t.Fatalf("ожидали непустой ID")
	}
	if content.Post.Type != domain.PostTypeImage {
		t.Fatalf("ожидали ветку image, получили %s", content.Post.Type)
	}
	if len(content.ImageURLs) != 4 {
		t.Fatalf("ожидали 4 кандидата, получили %d", len(content.ImageURLs))
	}
	if content.SelectedImageURL != content.ImageURLs[0] {
		t.Fatalf("ожидали выбор первого кандидата")
	}
	for _, u := range content.ImageURLs {
		if !strings.HasPrefix(u, "data:image/png;base64,") {
			t.Fatalf("ожидали data URI, получили %q", u)
		}
	}
	if images.lastPrompt != "закат над лавандовым полем" {
		t.Fatalf("генератор изображений получил не тот промпт: %q", images.lastPrompt)
	}
	if images.lastAspect != domain.AspectSquare {
		t.Fatalf("потеряно соотношение сторон")
	}
}

func TestGenerateWrittenUsesImageBranch(t *testing.T) {
	text := &stubText{structured: json.RawMessage(`{"image_prompt":"плакат с текстом скидки","caption":"Подробности в профиле"}`)}
	images := &stubImages{}
	service := newTestService(text, images)

	content, err := service.Generate(context.Background(), domain.Idea{Text: "скидка 20%", AspectRatio: domain.AspectVertical, Variant: domain.VariantWritten})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if content.Post.Type != domain.PostTypeImage {
		t.Fatalf("письменный пост кодируется веткой image, получили %s", content.Post.Type)
	}
}

func TestGenerateValidatesIdea(t *testing.T) {
	cases := []struct {
		name string
		idea domain.Idea
	}{
		{"пустая идея", domain.Idea{Text: "  ", AspectRatio: domain.AspectSquare, Variant: domain.VariantImage}},
		{"неизвестный формат", domain.Idea{Text: "идея", AspectRatio: "16:10", Variant: domain.VariantImage}},
		{"неизвестная форма", domain.Idea{Text: "идея", AspectRatio: domain.AspectSquare, Variant: "reel"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := &stubText{}
			images := &stubImages{}
			service := newTestService(text, images)

			_, err := service.Generate(context.Background(), tc.idea)
			genErr, ok := domain.AsGenerationError(err)
			if !ok || genErr.Kind != domain.KindValidationFailure {
				t.Fatalf("ожидали ошибку валидации, получили %v", err)
			}
			if text.structuredCalls != 0 || images.calls != 0 {
				t.Fatalf("внешние сервисы не должны вызываться при невалидной идее")
			}
		})
	}
}

func TestGeneratePropagatesQuota(t *testing.T) {
	text := &stubText{structuredErr: domain.NewGenerationError(domain.KindQuotaExceeded, "квота исчерпана", nil)}
	images := &stubImages{}
	service := newTestService(text, images)

	_, err := service.Generate(context.Background(), domain.Idea{Text: "идея", AspectRatio: domain.AspectSquare, Variant: domain.VariantImage})
	genErr, ok := domain.AsGenerationError(err)
	if !ok || genErr.Kind != domain.KindQuotaExceeded {
		t.Fatalf("ожидали квотную ошибку, получили %v", err)
	}
	if images.calls != 0 {
		t.Fatalf("после ошибки текста изображения не генерируются")
	}
}

func TestGenerateCarouselSlideBounds(t *testing.T) {
	slide := `{"title":"Слайд","body":"Текст"}`
	for _, n := range []int{1, 6} {
		slides := make([]string, n)
		for i := range slides {
			slides[i] = slide
		}
		raw := fmt.Sprintf(`{"cover_image_prompt":"обложка","slides":[%s],"caption":"подпись"}`, strings.Join(slides, ","))
		text := &stubText{structured: json.RawMessage(raw)}
		images := &stubImages{}
		service := newTestService(text, images)

		_, err := service.Generate(context.Background(), domain.Idea{Text: "советы", AspectRatio: domain.AspectSquare, Variant: domain.VariantCarousel})
		genErr, ok := domain.AsGenerationError(err)
		if !ok || genErr.Kind != domain.KindValidationFailure {
			t.Fatalf("карусель из %d слайдов должна отклоняться, получили %v", n, err)
		}
		if images.calls != 0 {
			t.Fatalf("после невалидной карусели изображения не генерируются")
		}
	}
}

func TestGenerateCarousel(t *testing.T) {
	raw := `{"cover_image_prompt":"обложка","slides":[{"title":"Раз","body":"Первый"},{"title":"Два","body":"Второй"},{"title":"Три","body":"Третий"}],"caption":"подпись"}`
	text := &stubText{structured: json.RawMessage(raw)}
	images := &stubImages{}
	service := newTestService(text, images)

	content, err := service.Generate(context.Background(), domain.Idea{Text: "советы", AspectRatio: domain.AspectLandscape, Variant: domain.VariantCarousel})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if content.Post.Type != domain.PostTypeCarousel || content.Post.Carousel == nil {
		t.Fatalf("ожидали ветку carousel")
	}
	if len(content.Post.Carousel.Slides) != 3 {
		t.Fatalf("потеряны слайды")
	}
	if images.lastPrompt != "обложка" {
		t.Fatalf("для карусели генерируется обложка, получили %q", images.lastPrompt)
	}
}

func TestGenerateNoCandidates(t *testing.T) {
	text := &stubText{structured: json.RawMessage(`{"image_prompt":"промпт","caption":"подпись"}`)}
	images := &stubImages{count: -1}
	service := newTestService(text, images)

	_, err := service.Generate(context.Background(), domain.Idea{Text: "идея", AspectRatio: domain.AspectSquare, Variant: domain.VariantImage})
	genErr, ok := domain.AsGenerationError(err)
	if !ok || genErr.Kind != domain.KindTransportFailure {
		t.Fatalf("пустой список кандидатов должен давать транспортную ошибку, получили %v", err)
	}
}

func TestCaptionForImage(t *testing.T) {
	text := &stubText{structured: json.RawMessage(`{"caption":"Готовая подпись"}`)}
	images := &stubImages{}
	service := newTestService(text, images)

	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("photo"))
	content, err := service.CaptionForImage(context.Background(), uri, "фото витрины")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if images.calls != 0 {
		t.Fatalf("генерация изображений должна пропускаться")
	}
	if len(content.ImageURLs) != 1 || content.ImageURLs[0] != uri {
		t.Fatalf("единственным кандидатом должно быть исходное изображение")
	}
	if content.SelectedImageURL != uri {
		t.Fatalf("исходное изображение должно быть выбрано")
	}
	if content.Post.ImagePrompt() != "фото витрины" {
		t.Fatalf("описание должно стать промптом, получили %q", content.Post.ImagePrompt())
	}
	if content.Post.Caption() != "Готовая подпись" {
		t.Fatalf("потеряна подпись")
	}
}

func TestCaptionForImageRejectsPlainURL(t *testing.T) {
	service := newTestService(&stubText{}, &stubImages{})

	_, err := service.CaptionForImage(context.Background(), "https://example.com/img.png", "описание")
	genErr, ok := domain.AsGenerationError(err)
	if !ok || genErr.Kind != domain.KindValidationFailure {
		t.Fatalf("обычный URL должен отклоняться, получили %v", err)
	}
}

func TestSuggestTrimsQuotes(t *testing.T) {
	text := &stubText{text: "  «Покажите закулисье мастерской»  "}
	service := newTestService(text, &stubImages{})

	idea, err := service.Suggest(context.Background(), []string{"акция", "отзыв"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if idea != "Покажите закулисье мастерской" {
		t.Fatalf("кавычки и пробелы должны сниматься, получили %q", idea)
	}
}

func TestAnalyzeTestimonial(t *testing.T) {
	text := &stubText{structured: json.RawMessage(`{"tags":[" сервис ","качество",""]}`)}
	service := newTestService(text, &stubImages{})

	tags, err := service.AnalyzeTestimonial(context.Background(), "Очень доволен работой!")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(tags) != 2 || tags[0] != "сервис" || tags[1] != "качество" {
		t.Fatalf("ожидали очищенные теги, получили %v", tags)
	}
}

func TestAnalyzeTestimonialEmptyTags(t *testing.T) {
	text := &stubText{structured: json.RawMessage(`{"tags":[]}`)}
	service := newTestService(text, &stubImages{})

	_, err := service.AnalyzeTestimonial(context.Background(), "отзыв")
	genErr, ok := domain.AsGenerationError(err)
	if !ok || genErr.Kind != domain.KindValidationFailure {
		t.Fatalf("пустой список тегов должен отклоняться, получили %v", err)
	}
}
