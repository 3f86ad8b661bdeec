package models

import (
	"time"

	"gorm.io/datatypes"
)

// Estados del ciclo de vida editorial de un documento.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusReady     = "READY"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

// Estados del análisis IA de un documento.
const (
	AnalysisPending    = "PENDING"
	AnalysisProcessing = "PROCESSING"
	AnalysisCompleted  = "COMPLETED"
	AnalysisFailed     = "FAILED"
)

// Document representa una providencia judicial extraída y sus metadatos editoriales.
type Document struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"` // ej. "T-123/25"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Metadatos descriptivos
	Source          string     `json:"source" gorm:"index"`
	Title           string     `json:"title"`
	Type            string     `json:"type" gorm:"index"` // T, C, SU
	Area            string     `json:"area,omitempty" gorm:"index"`
	Summary         string     `json:"summary,omitempty" gorm:"type:text"`
	URL             string     `json:"url,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	ExtractionDate  *time.Time `json:"extraction_date,omitempty"`

	// Estado editorial. Cada timestamp se fija una sola vez al entrar a la etapa.
	Status         string     `json:"status" gorm:"index;default:'PENDING'"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
	RejectedReason string     `json:"rejected_reason,omitempty"`
	ReadyAt        *time.Time `json:"ready_at,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	ArchivedBy     string     `json:"archived_by,omitempty"`
	ArchiveReason  string     `json:"archive_reason,omitempty"`

	// Análisis IA estructurado
	NumeroSentencia    string         `json:"numero_sentencia,omitempty"`
	MagistradoPonente  string         `json:"magistrado_ponente,omitempty"`
	SalaRevision       string         `json:"sala_revision,omitempty"`
	Expediente         string         `json:"expediente,omitempty"`
	TemaPrincipal      string         `json:"tema_principal,omitempty" gorm:"type:text"`
	ResumenIA          string         `json:"resumen_ia,omitempty" gorm:"type:text"`
	Decision           string         `json:"decision,omitempty" gorm:"type:text"`
	AIAnalysisStatus   string         `json:"ai_analysis_status,omitempty" gorm:"index"`
	AIAnalysisDate     *time.Time     `json:"ai_analysis_date,omitempty"`
	AIModel            string         `json:"ai_model,omitempty"`
	FragmentosAnalisis datatypes.JSON `json:"fragmentos_analisis,omitempty" gorm:"type:jsonb"`

	// Documento fuente descargado
	RTFLink     string `json:"rtf_link,omitempty"`
	S3Link      string `json:"s3_link,omitempty" gorm:"type:text"`
	CloudStored bool   `json:"cloud_stored" gorm:"default:false"`
}

// TableName indica explícitamente el nombre de la tabla.
func (Document) TableName() string {
	return "documents"
}
