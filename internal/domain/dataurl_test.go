package domain

import (
	"bytes"
	"testing"
)

func TestDataURLRoundTrip(t *testing.T) {
	img := GeneratedImage{Bytes: []byte("картинка"), MimeType: "image/png"}
	uri := DataURL(img)

	parsed, err := ParseDataURL(uri)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if parsed.MimeType != "image/png" {
		t.Fatalf("потерян MIME-тип: %q", parsed.MimeType)
	}
	if !bytes.Equal(parsed.Bytes, img.Bytes) {
		t.Fatalf("байты не совпали")
	}
}

func TestParseDataURLRejectsPlainURL(t *testing.T) {
	if _, err := ParseDataURL("https://example.com/img.png"); err == nil {
		t.Fatalf("обычный URL должен отклоняться")
	}
}

func TestParseDataURLRejectsBrokenBase64(t *testing.T) {
	if _, err := ParseDataURL("data:image/png;base64,@@@"); err == nil {
		t.Fatalf("битый base64 должен отклоняться")
	}
}
