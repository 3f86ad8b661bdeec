package providers

import (
	"context"
	"time"

	"github.com/JLinaresBeltran/Juridica-News-sub000/models"
)

// Provider es la interfaz que implementa cada fuente de jurisprudencia
// (ej. Corte Constitucional).
type Provider interface {
	// Extract devuelve los documentos publicados desde la fecha dada,
	// como modelos Document estandarizados con estado PENDING.
	Extract(ctx context.Context, since time.Time) ([]*models.Document, error)

	// Name devuelve el nombre único de la fuente (ej. "corte_constitucional").
	Name() string
}
