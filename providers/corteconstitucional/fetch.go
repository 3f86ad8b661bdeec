package corteconstitucional

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JLinaresBeltran/Juridica-News-sub000/config"
	"github.com/JLinaresBeltran/Juridica-News-sub000/models"
)

// SourceName identifica esta fuente en la tabla sources.
const SourceName = "corte_constitucional"

var (
	// IDs de providencia: T-123/25, C-042/2025, SU.123/25, A-090/25
	sentenceIDExpr = regexp.MustCompile(`^(T|C|SU\.?|A)[-.]?\d{1,4}[/-]\d{2,4}$`)
	dateExpr       = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
)

// Fetcher extrae providencias del buscador de la relatoría de la Corte
// Constitucional.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
	client *http.Client
}

// NewFetcher crea una instancia del extractor de la Corte Constitucional.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name devuelve el nombre de la fuente.
func (f *Fetcher) Name() string {
	return SourceName
}

// Extract recorre la relatoría día por día desde la fecha dada y
// devuelve los documentos encontrados, de-duplicados por id.
func (f *Fetcher) Extract(ctx context.Context, since time.Time) ([]*models.Document, error) {
	log := f.Logger.With(zap.String("source", SourceName))

	delay := time.Duration(f.Config.ScrapeRequestDelayMs) * time.Millisecond
	seen := make(map[string]struct{})
	var results []*models.Document

	for day := since.Truncate(24 * time.Hour); !day.After(time.Now()); day = day.AddDate(0, 0, 1) {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		doc, err := f.fetchListing(ctx, day)
		if err != nil {
			// un día sin listado no aborta la extracción completa
			log.Warn("Listado diario no disponible", zap.Time("day", day), zap.Error(err))
			continue
		}

		docs := f.ParseListing(doc, day)
		for _, d := range docs {
			if _, ok := seen[d.ID]; ok {
				continue
			}
			seen[d.ID] = struct{}{}
			results = append(results, d)
			if f.Config.ScrapeMaxRows > 0 && len(results) >= f.Config.ScrapeMaxRows {
				log.Info("Límite de filas alcanzado", zap.Int("max_rows", f.Config.ScrapeMaxRows))
				return results, nil
			}
		}

		time.Sleep(delay)
	}

	log.Info("Extracción completada", zap.Int("documents", len(results)))
	return results, nil
}

func (f *Fetcher) fetchListing(ctx context.Context, day time.Time) (*goquery.Document, error) {
	url := f.listingURL(day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "JuridicaNews/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relatoria devolvió %s", resp.Status)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (f *Fetcher) listingURL(day time.Time) string {
	return fmt.Sprintf("%s/relatoria/buscador-jurisprudencia?fecha=%s",
		f.Config.CorteBaseURL, day.Format("2006-01-02"))
}

// ParseListing extrae las filas de resultados de una página del buscador.
// Cada fila lleva el id de la providencia en la primera celda, la fecha
// en la segunda y el tema en la tercera.
func (f *Fetcher) ParseListing(doc *goquery.Document, day time.Time) []*models.Document {
	var out []*models.Document
	now := time.Now()

	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		id := strings.TrimSpace(cells.Eq(0).Text())
		if !sentenceIDExpr.MatchString(id) {
			return
		}

		pubDate := day
		if m := dateExpr.FindString(cells.Eq(1).Text()); m != "" {
			if parsed, err := time.Parse("2/1/2006", m); err == nil {
				pubDate = parsed
			}
		}

		title := ""
		if cells.Length() >= 3 {
			title = strings.TrimSpace(cells.Eq(2).Text())
		}
		if title == "" {
			title = fmt.Sprintf("Sentencia %s", id)
		}

		year := pubDate.Year()
		out = append(out, &models.Document{
			ID:              id,
			Source:          SourceName,
			Title:           title,
			Type:            DocumentType(id),
			URL:             HTMLURL(f.Config.CorteBaseURL, id, year),
			RTFLink:         DocumentURL(f.Config.CorteBaseURL, id, year),
			Status:          models.StatusPending,
			PublicationDate: &pubDate,
			ExtractionDate:  &now,
		})
	})

	return out
}

// DocumentURL genera la URL del documento RTF de una providencia.
// Las sentencias de unificación usan el prefijo "su" en minúsculas.
func DocumentURL(baseURL, sentenceID string, year int) string {
	var normalized string
	if strings.HasPrefix(sentenceID, "SU.") {
		normalized = strings.ToLower(strings.ReplaceAll(strings.Replace(sentenceID, "SU.", "su", 1), "/", "-"))
	} else {
		normalized = strings.ReplaceAll(strings.ToLower(sentenceID), "/", "-")
	}
	return fmt.Sprintf("%s/sentencias/%d/%s.rtf", baseURL, year, normalized)
}

// HTMLURL genera la URL de la página HTML de una providencia.
func HTMLURL(baseURL, sentenceID string, year int) string {
	return fmt.Sprintf("%s/relatoria/%d/%s.htm", baseURL, year, strings.ReplaceAll(sentenceID, "/", "-"))
}

// NormalizeFilename normaliza un id de providencia para usarlo como
// nombre de archivo.
func NormalizeFilename(sentenceID string) string {
	return strings.ReplaceAll(strings.ReplaceAll(sentenceID, "/", "-"), " ", "_")
}

// DocumentType extrae el tipo de providencia (T, C, SU, A) del id.
func DocumentType(sentenceID string) string {
	if i := strings.IndexAny(sentenceID, "-."); i > 0 {
		return sentenceID[:i]
	}
	return sentenceID
}
