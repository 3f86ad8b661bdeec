package models

import (
	"time"

	"gorm.io/datatypes"
)

// Article representa un artículo generado a partir de un documento aprobado.
type Article struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"` // UUID
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Referencia al documento de origen
	DocumentID string `json:"document_id" gorm:"index;not null"`

	// Contenido generado
	Title    string `json:"title" gorm:"not null"`
	Content  string `json:"content" gorm:"type:text"`
	ImageURL string `json:"image_url,omitempty"`

	// Metadatos SEO
	MetaDescription string         `json:"meta_description,omitempty"`
	SeoTitle        string         `json:"seo_title,omitempty"`
	Keywords        datatypes.JSON `json:"keywords,omitempty" gorm:"type:jsonb"`
	Section         string         `json:"section,omitempty" gorm:"index"` // ej. "constitucional"
	CustomTags      datatypes.JSON `json:"custom_tags,omitempty" gorm:"type:jsonb"`
	ReadingTime     int            `json:"reading_time,omitempty"`
	Slug            string         `json:"slug,omitempty" gorm:"uniqueIndex"`

	// Gestión editorial
	Status      string     `json:"status" gorm:"index;default:'draft'"` // draft, review, published, archived
	PublishedAt *time.Time `json:"published_at,omitempty"`
	AuthorName  string     `json:"author_name,omitempty"`

	// Analytics
	ViewCount int `json:"view_count" gorm:"default:0"`
}

// TableName indica explícitamente el nombre de la tabla.
func (Article) TableName() string {
	return "articles"
}
