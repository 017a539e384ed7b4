package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"smm-studio/internal/domain"
	"smm-studio/internal/infra/gemini"
)

type predictClient interface {
	Predict(ctx context.Context, model, prompt string, params gemini.PredictParameters) ([]gemini.ImagePrediction, error)
}

// Gemini реализует domain.ImageGenerator через Imagen predict.
type Gemini struct {
	client  predictClient
	model   string
	timeout time.Duration
}

var _ domain.ImageGenerator = (*Gemini)(nil)

// NewGemini создаёт провайдер генерации изображений.
func NewGemini(client predictClient, model string, timeout time.Duration) *Gemini {
	if model == "" {
		model = "imagen-4.0-generate-001"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Gemini{client: client, model: model, timeout: timeout}
}

// GenerateImages возвращает count независимых сэмплов по одному промпту.
func (g *Gemini) GenerateImages(ctx context.Context, prompt string, aspect domain.AspectRatio, count int) ([]domain.GeneratedImage, error) {
	if count <= 0 {
		count = 1
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := gemini.PredictParameters{
		SampleCount:    count,
		AspectRatio:    string(aspect),
		OutputMimeType: "image/jpeg",
	}
	predictions, err := g.client.Predict(ctx, g.model, prompt, params)
	if err != nil {
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) && apiErr.QuotaExhausted() {
			return nil, domain.NewGenerationError(domain.KindQuotaExceeded, "исчерпана квота генерации изображений", err)
		}
		return nil, domain.NewGenerationError(domain.KindTransportFailure, "генерация изображений", err)
	}

	images := make([]domain.GeneratedImage, 0, len(predictions))
	for i, pred := range predictions {
		raw, err := base64.StdEncoding.DecodeString(pred.BytesBase64Encoded)
		if err != nil {
			return nil, domain.NewGenerationError(domain.KindTransportFailure, fmt.Sprintf("декодирование изображения %d", i+1), err)
		}
		mime := pred.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		images = append(images, domain.GeneratedImage{Bytes: raw, MimeType: mime})
	}
	return images, nil
}
