package curation

import "time"

// ArticleMetadata agrupa los metadatos SEO de un artículo generado.
type ArticleMetadata struct {
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Section     string   `json:"section,omitempty"`
	CustomTags  []string `json:"customTags,omitempty"`
	SeoTitle    string   `json:"seoTitle,omitempty"`
	ReadingTime int      `json:"readingTime,omitempty"`
}

// ArticleData es el artículo generado asociado a un documento.
// En los snapshots persistidos Content e Image se reemplazan por
// ContentPreview y HasImage para acotar el tamaño.
type ArticleData struct {
	Title          string           `json:"title,omitempty"`
	Content        string           `json:"content,omitempty"`
	ContentPreview string           `json:"contentPreview,omitempty"`
	Image          string           `json:"image,omitempty"`
	ImageID        string           `json:"imageId,omitempty"`
	HasImage       bool             `json:"hasImage,omitempty"`
	Metadata       *ArticleMetadata `json:"metadata,omitempty"`
}

// Document es el registro de curación de una providencia en tránsito
// por el pipeline editorial.
type Document struct {
	ID      string `json:"id"`
	Source  string `json:"source,omitempty"`
	Title   string `json:"title,omitempty"`
	Type    string `json:"type,omitempty"`
	Area    string `json:"area,omitempty"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url,omitempty"`

	PublicationDate *time.Time `json:"publicationDate,omitempty"`
	ExtractionDate  *time.Time `json:"extractionDate,omitempty"`

	// Timestamps de ciclo de vida: se fijan una sola vez al entrar a la etapa.
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	RejectedAt     *time.Time `json:"rejectedAt,omitempty"`
	RejectedReason string     `json:"rejectedReason,omitempty"`
	ReadyAt        *time.Time `json:"readyAt,omitempty"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`

	// Análisis IA adjuntado de forma asíncrona
	NumeroSentencia    string     `json:"numeroSentencia,omitempty"`
	MagistradoPonente  string     `json:"magistradoPonente,omitempty"`
	SalaRevision       string     `json:"salaRevision,omitempty"`
	Expediente         string     `json:"expediente,omitempty"`
	TemaPrincipal      string     `json:"temaPrincipal,omitempty"`
	ResumenIA          string     `json:"resumenIA,omitempty"`
	Decision           string     `json:"decision,omitempty"`
	AIAnalysisStatus   string     `json:"aiAnalysisStatus,omitempty"`
	AIAnalysisDate     *time.Time `json:"aiAnalysisDate,omitempty"`
	AIModel            string     `json:"aiModel,omitempty"`
	FragmentosAnalisis []string   `json:"fragmentosAnalisis,omitempty"`

	ArticleData *ArticleData `json:"articleData,omitempty"`
}

// ArchivedDocument es un documento archivado con su contexto de archivo.
// Los tres campos adicionales son obligatorios al momento de archivar.
type ArchivedDocument struct {
	Document
	ArchivedAt time.Time `json:"archivedAt"`
	ArchivedBy string    `json:"archivedBy"`
	Reason     string    `json:"reason"`
}
