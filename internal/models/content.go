package models

import "time"

// ContentType тип медиа элемента каталога.
type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
	ContentImage    ContentType = "image"
	ContentOther    ContentType = "other"
)

// Content элемент каталога. URL - внешняя ссылка, медиа платформа не хранит.
type Content struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Description  *string     `json:"description,omitempty"`
	URL          string      `json:"url"`
	ThumbnailURL *string     `json:"thumbnailUrl,omitempty"`
	Type         ContentType `json:"type"`
	IsPublic     bool        `json:"isPublic"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// NewContent данные для создания элемента каталога.
type NewContent struct {
	Title        string      `json:"title" validate:"required,max=255"`
	Description  string      `json:"description"`
	URL          string      `json:"url" validate:"required,max=512"`
	ThumbnailURL *string     `json:"thumbnailUrl,omitempty" validate:"omitempty,max=512"`
	Type         ContentType `json:"type" validate:"required,oneof=video document image other"`
	IsPublic     bool        `json:"isPublic"`
}

// ContentPatch частичное обновление: nil-поля не изменяются.
type ContentPatch struct {
	Title        *string      `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string      `json:"description,omitempty"`
	URL          *string      `json:"url,omitempty" validate:"omitempty,min=1,max=512"`
	ThumbnailURL *string      `json:"thumbnailUrl,omitempty" validate:"omitempty,max=512"`
	Type         *ContentType `json:"type,omitempty" validate:"omitempty,oneof=video document image other"`
	IsPublic     *bool        `json:"isPublic,omitempty"`
}

// Empty сообщает, что патч ничего не меняет.
func (p ContentPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.URL == nil &&
		p.ThumbnailURL == nil && p.Type == nil && p.IsPublic == nil
}
