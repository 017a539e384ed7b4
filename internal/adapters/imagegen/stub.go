package imagegen

import (
	"context"
	"crypto/sha256"
	"fmt"

	"smm-studio/internal/domain"
)

// Stub имитирует генератор изображений для локальной разработки.
type Stub struct{}

var _ domain.ImageGenerator = (*Stub)(nil)

// NewStub создаёт заглушку.
func NewStub() *Stub {
	return &Stub{}
}

// GenerateImages возвращает count детерминированных плейсхолдеров.
func (s *Stub) GenerateImages(_ context.Context, prompt string, aspect domain.AspectRatio, count int) ([]domain.GeneratedImage, error) {
	if count <= 0 {
		count = 1
	}
	images := make([]domain.GeneratedImage, 0, count)
	for i := 0; i < count; i++ {
		seed := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", prompt, aspect, i)))
		images = append(images, domain.GeneratedImage{
			Bytes:    []byte(fmt.Sprintf("stub-image-%x", seed[:8])),
			MimeType: "image/png",
		})
	}
	return images, nil
}
