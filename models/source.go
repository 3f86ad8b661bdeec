package models

// Source representa una fuente de scraping de jurisprudencia.
type Source struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"uniqueIndex;not null"` // ej. "corte_constitucional"
	Label   string `json:"label,omitempty"`                  // nombre legible
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled" gorm:"default:true"`
}

// TableName indica el nombre explícito de la tabla para GORM.
func (Source) TableName() string {
	return "sources"
}
