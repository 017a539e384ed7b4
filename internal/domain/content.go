package domain

// AspectRatio задаёт соотношение сторон генерируемого изображения.
type AspectRatio string

const (
	// AspectSquare квадратный формат для ленты.
	AspectSquare AspectRatio = "1:1"
	// AspectLandscape горизонтальный формат.
	AspectLandscape AspectRatio = "4:3"
	// AspectVertical вертикальный формат для историй.
	AspectVertical AspectRatio = "9:16"
)

// IsValid проверяет, что соотношение сторон поддерживается.
func (a AspectRatio) IsValid() bool {
	switch a {
	case AspectSquare, AspectLandscape, AspectVertical:
		return true
	}
	return false
}

// Variant задаёт форму поста, запрошенную пользователем.
type Variant string

const (
	// VariantImage пост с изображением и подписью.
	VariantImage Variant = "image"
	// VariantWritten пост, где основной текст нанесён поверх изображения.
	VariantWritten Variant = "written"
	// VariantCarousel карусель из нескольких слайдов.
	VariantCarousel Variant = "carousel"
)

// IsValid проверяет, что форма поста поддерживается.
func (v Variant) IsValid() bool {
	switch v {
	case VariantImage, VariantWritten, VariantCarousel:
		return true
	}
	return false
}

// Idea описывает пользовательскую идею поста. Не персистится.
type Idea struct {
	Text        string
	AspectRatio AspectRatio
	Variant     Variant
}

// PostType указывает активную ветку GeneratedPost.
type PostType string

const (
	// PostTypeImage одиночное изображение с подписью.
	PostTypeImage PostType = "image"
	// PostTypeCarousel карусель со слайдами и обложкой.
	PostTypeCarousel PostType = "carousel"
)

// ImagePost содержит промпт изображения и подпись.
type ImagePost struct {
	ImagePrompt string `json:"image_prompt"`
	Caption     string `json:"caption"`
}

// CarouselSlide описывает один слайд карусели.
type CarouselSlide struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CarouselPost содержит обложку, слайды и общую подпись.
type CarouselPost struct {
	CoverImagePrompt string          `json:"cover_image_prompt"`
	Slides           []CarouselSlide `json:"slides"`
	Caption          string          `json:"caption"`
}

// GeneratedPost — размеченное объединение форм поста: активна ровно одна ветка.
// Вариант written кодируется веткой image: текст поста зашивается в промпт.
type GeneratedPost struct {
	Type     PostType      `json:"type"`
	Image    *ImagePost    `json:"image,omitempty"`
	Carousel *CarouselPost `json:"carousel,omitempty"`
}

// Caption возвращает подпись активной ветки.
func (p GeneratedPost) Caption() string {
	switch p.Type {
	case PostTypeImage:
		if p.Image != nil {
			return p.Image.Caption
		}
	case PostTypeCarousel:
		if p.Carousel != nil {
			return p.Carousel.Caption
		}
	}
	return ""
}

// ImagePrompt возвращает промпт, управляющий визуалом: для карусели это обложка.
func (p GeneratedPost) ImagePrompt() string {
	switch p.Type {
	case PostTypeImage:
		if p.Image != nil {
			return p.Image.ImagePrompt
		}
	case PostTypeCarousel:
		if p.Carousel != nil {
			return p.Carousel.CoverImagePrompt
		}
	}
	return ""
}

// SetCaption записывает подпись в активную ветку.
func (p *GeneratedPost) SetCaption(caption string) {
	switch p.Type {
	case PostTypeImage:
		if p.Image != nil {
			p.Image.Caption = caption
		}
	case PostTypeCarousel:
		if p.Carousel != nil {
			p.Carousel.Caption = caption
		}
	}
}

// SetImagePrompt записывает управляющий промпт активной ветки.
func (p *GeneratedPost) SetImagePrompt(prompt string) {
	switch p.Type {
	case PostTypeImage:
		if p.Image != nil {
			p.Image.ImagePrompt = prompt
		}
	case PostTypeCarousel:
		if p.Carousel != nil {
			p.Carousel.CoverImagePrompt = prompt
		}
	}
}

// Clone возвращает глубокую копию поста.
func (p GeneratedPost) Clone() GeneratedPost {
	out := GeneratedPost{Type: p.Type}
	if p.Image != nil {
		img := *p.Image
		out.Image = &img
	}
	if p.Carousel != nil {
		car := *p.Carousel
		car.Slides = append([]CarouselSlide(nil), p.Carousel.Slides...)
		out.Carousel = &car
	}
	return out
}

// GeneratedContent — рабочая копия контента между генерацией и фиксацией.
// Инвариант: SelectedImageURL всегда входит в ImageURLs.
type GeneratedContent struct {
	ID               string        `json:"id"`
	Post             GeneratedPost `json:"post"`
	ImageURLs        []string      `json:"image_urls"`
	SelectedImageURL string        `json:"selected_image_url"`
	AspectRatio      AspectRatio   `json:"aspect_ratio"`
}

// Clone возвращает глубокую копию контента.
func (c GeneratedContent) Clone() GeneratedContent {
	out := c
	out.Post = c.Post.Clone()
	out.ImageURLs = append([]string(nil), c.ImageURLs...)
	return out
}

// HasImageURL проверяет, что URI входит в список кандидатов.
func (c GeneratedContent) HasImageURL(uri string) bool {
	for _, u := range c.ImageURLs {
		if u == uri {
			return true
		}
	}
	return false
}
