package domain

// CompanySettings описывает профиль компании, из которого строятся промпты.
type CompanySettings struct {
	CompanyName string `json:"company_name"`
	Slogan      string `json:"slogan"`
	Location    string `json:"location"`
	Services    string `json:"services"`
	VoiceTone   string `json:"voice_tone"`
	CTA         string `json:"cta"`
	Hashtags    string `json:"hashtags"`
}

// DefaultCompanySettings возвращает профиль по умолчанию для нового окружения.
func DefaultCompanySettings() CompanySettings {
	return CompanySettings{
		CompanyName: "Моя компания",
		Slogan:      "Коротко о главном",
		VoiceTone:   "Лёгкий, человечный, без канцелярита",
		CTA:         "Напишите нам в директ",
		Hashtags:    "#бизнес #маркетинг",
	}
}
