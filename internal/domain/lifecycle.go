package domain

import "time"

// Platform идентифицирует подключённую социальную площадку.
type Platform string

const (
	// PlatformFacebook лента Facebook.
	PlatformFacebook Platform = "facebook"
	// PlatformInstagram лента Instagram.
	PlatformInstagram Platform = "instagram"
	// PlatformGoogle карточка Google Business.
	PlatformGoogle Platform = "google"
)

// IsValid проверяет, что площадка известна системе.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformGoogle:
		return true
	}
	return false
}

// Draft — сохранённый черновик; ключом служит ID контента.
type Draft = GeneratedContent

// ScheduledPost — пост, поставленный в расписание публикаций.
type ScheduledPost struct {
	ID            string           `json:"id"`
	Content       GeneratedContent `json:"content"`
	ScheduledDate time.Time        `json:"scheduled_date"`
	Platforms     []Platform       `json:"platforms"`
}

// Clone возвращает глубокую копию запланированного поста.
func (s ScheduledPost) Clone() ScheduledPost {
	out := s
	out.Content = s.Content.Clone()
	out.Platforms = append([]Platform(nil), s.Platforms...)
	return out
}

// PublishedPost — запись о состоявшейся публикации.
type PublishedPost struct {
	ID            string           `json:"id"`
	Content       GeneratedContent `json:"content"`
	PublishedDate time.Time        `json:"published_date"`
	Platforms     []Platform       `json:"platforms"`
}

// Clone возвращает глубокую копию опубликованного поста.
func (p PublishedPost) Clone() PublishedPost {
	out := p
	out.Content = p.Content.Clone()
	out.Platforms = append([]Platform(nil), p.Platforms...)
	return out
}
