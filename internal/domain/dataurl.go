package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURL кодирует изображение в data URI для списка кандидатов.
func DataURL(img GeneratedImage) string {
	mime := img.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Bytes))
}

// ParseDataURL разбирает data URI обратно в изображение.
func ParseDataURL(uri string) (GeneratedImage, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return GeneratedImage{}, fmt.Errorf("ожидается data URI")
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return GeneratedImage{}, fmt.Errorf("ожидается base64-кодированный data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return GeneratedImage{}, fmt.Errorf("декодирование data URI: %w", err)
	}
	return GeneratedImage{Bytes: raw, MimeType: mime}, nil
}
