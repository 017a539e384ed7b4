package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"smm-studio/internal/domain"
)

type revisionService interface {
	ReviseImage(ctx context.Context, content domain.GeneratedContent, promptOverride string) (domain.GeneratedContent, error)
	Proofread(ctx context.Context, content domain.GeneratedContent, text string) (domain.GeneratedContent, error)
	SelectImage(content domain.GeneratedContent, uri string) (domain.GeneratedContent, error)
}

type settingsService interface {
	Current() domain.CompanySettings
	Update(ctx context.Context, next domain.CompanySettings) error
}

// Handler связывает HTTP маршруты с сервисами движка.
type Handler struct {
	generation domain.GenerationService
	revision   revisionService
	store      domain.LifecycleStore
	settings   settingsService
	log        zerolog.Logger
}

// NewHandler создаёт HTTP обработчик.
func NewHandler(generation domain.GenerationService, revision revisionService, store domain.LifecycleStore, settings settingsService, log zerolog.Logger) *Handler {
	return &Handler{generation: generation, revision: revision, store: store, settings: settings, log: log}
}

// Register вешает маршруты на роутер.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/content/generate", h.generate)
		r.Post("/content/caption", h.captionForImage)
		r.Post("/content/revise-image", h.reviseImage)
		r.Post("/content/proofread", h.proofread)
		r.Post("/content/select-image", h.selectImage)
		r.Post("/suggestion", h.suggest)
		r.Post("/testimonial/analyze", h.analyzeTestimonial)

		r.Get("/drafts", h.listDrafts)
		r.Post("/drafts", h.saveDraft)
		r.Get("/schedule", h.listScheduled)
		r.Post("/schedule", h.schedulePost)
		r.Get("/published", h.listPublished)
		r.Post("/publish", h.publishPost)

		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.updateSettings)
	})
}

type generateRequest struct {
	Idea        string `json:"idea"`
	AspectRatio string `json:"aspect_ratio"`
	Variant     string `json:"variant"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	idea := domain.Idea{
		Text:        req.Idea,
		AspectRatio: domain.AspectRatio(req.AspectRatio),
		Variant:     domain.Variant(req.Variant),
	}
	content, err := h.generation.Generate(r.Context(), idea)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, content)
}

type captionRequest struct {
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

func (h *Handler) captionForImage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req captionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url обязателен")
		return
	}
	content, err := h.generation.CaptionForImage(r.Context(), req.ImageURL, req.Description)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, content)
}

type reviseImageRequest struct {
	Content domain.GeneratedContent `json:"content"`
	Prompt  string                  `json:"prompt"`
}

func (h *Handler) reviseImage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req reviseImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content.ID == "" {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	content, err := h.revision.ReviseImage(r.Context(), req.Content, req.Prompt)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, content)
}

type proofreadRequest struct {
	Content domain.GeneratedContent `json:"content"`
	Text    string                  `json:"text"`
}

func (h *Handler) proofread(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req proofreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content.ID == "" {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	content, err := h.revision.Proofread(r.Context(), req.Content, req.Text)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, content)
}

type selectImageRequest struct {
	Content  domain.GeneratedContent `json:"content"`
	ImageURL string                  `json:"image_url"`
}

func (h *Handler) selectImage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req selectImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content.ID == "" {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	content, err := h.revision.SelectImage(req.Content, req.ImageURL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, content)
}

type suggestionRequest struct {
	RecentTopics []string `json:"recent_topics"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req suggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	idea, err := h.generation.Suggest(r.Context(), req.RecentTopics)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"suggestion": idea})
}

type testimonialRequest struct {
	Testimonial string `json:"testimonial"`
}

func (h *Handler) analyzeTestimonial(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req testimonialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	tags, err := h.generation.AnalyzeTestimonial(r.Context(), req.Testimonial)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string][]string{"tags": tags})
}

func (h *Handler) listDrafts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Drafts())
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var content domain.GeneratedContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil || content.ID == "" {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	if err := h.store.SaveDraft(r.Context(), content); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) listScheduled(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Scheduled())
}

type scheduleRequest struct {
	Content       domain.GeneratedContent `json:"content"`
	ScheduledDate time.Time               `json:"scheduled_date"`
	Platforms     []domain.Platform       `json:"platforms"`
}

func (h *Handler) schedulePost(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content.ID == "" {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	for _, p := range req.Platforms {
		if !p.IsValid() {
			writeError(w, http.StatusBadRequest, "неизвестная площадка "+string(p))
			return
		}
	}
	post, err := h.store.Schedule(r.Context(), req.Content, req.ScheduledDate, req.Platforms)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, post)
}

func (h *Handler) listPublished(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Published())
}

type publishRequest struct {
	Content   domain.GeneratedContent `json:"content"`
	Platforms []domain.Platform       `json:"platforms"`
}

func (h *Handler) publishPost(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content.ID == "" {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	for _, p := range req.Platforms {
		if !p.IsValid() {
			writeError(w, http.StatusBadRequest, "неизвестная площадка "+string(p))
			return
		}
	}
	post, err := h.store.Publish(r.Context(), req.Content, req.Platforms)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, post)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.settings.Current())
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var next domain.CompanySettings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	if next.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "company_name обязателен")
		return
	}
	if err := h.settings.Update(r.Context(), next); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if genErr, ok := domain.AsGenerationError(err); ok {
		switch genErr.Kind {
		case domain.KindQuotaExceeded:
			writeError(w, http.StatusTooManyRequests, "исчерпана квота генеративного сервиса, проверьте тариф")
		case domain.KindValidationFailure:
			writeError(w, http.StatusUnprocessableEntity, genErr.Message)
		default:
			writeError(w, http.StatusBadGateway, "генеративный сервис недоступен, попробуйте ещё раз")
		}
		return
	}
	switch {
	case errors.Is(err, domain.ErrInvalidSelection), errors.Is(err, domain.ErrEmptyPlatformSet):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStaleRevision):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("внутренняя ошибка")
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
