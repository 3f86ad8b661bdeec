package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JLinaresBeltran/Juridica-News-sub000/config"
	"github.com/JLinaresBeltran/Juridica-News-sub000/models"
	"github.com/JLinaresBeltran/Juridica-News-sub000/providers"
	"github.com/JLinaresBeltran/Juridica-News-sub000/storage"
)

// httpClient se usa para descargar los documentos fuente (RTF/HTML).
var httpClient = &http.Client{Timeout: 60 * time.Second}

// ExtractionService orquesta el proceso completo de extracción:
// scraping por fuente, descarga del documento y subida a S3.
type ExtractionService struct {
	Config    *config.Config
	DB        *gorm.DB
	S3Client  *s3.Client
	Logger    *zap.Logger
	Providers []providers.Provider
}

// NewExtractionService crea una instancia del servicio de extracción.
func NewExtractionService(cfg *config.Config, db *gorm.DB, s3Client *s3.Client, logger *zap.Logger, provs []providers.Provider) *ExtractionService {
	return &ExtractionService{
		Config:    cfg,
		DB:        db,
		S3Client:  s3Client,
		Logger:    logger,
		Providers: provs,
	}
}

// RunAllSources ejecuta la extracción para todas las fuentes habilitadas
// en la base. Devuelve el total de documentos nuevos.
func (e *ExtractionService) RunAllSources(ctx context.Context) (int, error) {
	var sources []models.Source
	if err := e.DB.Where("enabled = ?", true).Find(&sources).Error; err != nil {
		e.Logger.Error("Error consultando las fuentes", zap.Error(err))
		return 0, err
	}

	total := 0
	for _, src := range sources {
		count, err := e.RunForSource(ctx, src)
		if err != nil {
			e.Logger.Error("Error procesando la fuente", zap.String("source", src.Name), zap.Error(err))
			continue
		}
		total += count
	}
	return total, nil
}

// RunForSource ejecuta la extracción para una fuente concreta.
func (e *ExtractionService) RunForSource(ctx context.Context, src models.Source) (int, error) {
	log := e.Logger.With(zap.String("source", src.Name))

	var provider providers.Provider
	for _, p := range e.Providers {
		if p.Name() == src.Name {
			provider = p
			break
		}
	}
	if provider == nil {
		return 0, fmt.Errorf("no hay provider registrado para la fuente %s", src.Name)
	}

	since := time.Now().AddDate(0, 0, -e.Config.ScrapeLookbackDays)
	log.Info("Iniciando extracción", zap.Time("since", since))

	docs, err := provider.Extract(ctx, since)
	if err != nil {
		return 0, err
	}
	log.Info("Extracción de listado completada", zap.Int("documents", len(docs)))

	// procesar descargas en paralelo, acotado a 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	newCount := 0
	semaphore := make(chan struct{}, 5)

	for _, doc := range docs {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(doc *models.Document) {
			defer wg.Done()
			defer func() { <-semaphore }()

			var existing models.Document
			if err := e.DB.First(&existing, "id = ?", doc.ID).Error; err == nil && existing.CloudStored {
				log.Debug("Documento ya almacenado, se omite", zap.String("id", doc.ID))
				return
			}

			if e.processDocument(ctx, doc) {
				mu.Lock()
				newCount++
				mu.Unlock()
			}
		}(doc)
	}

	wg.Wait()
	log.Info("Procesamiento de fuente completado", zap.Int("new_documents", newCount))
	return newCount, nil
}

// processDocument descarga el documento fuente, lo sube a S3 y guarda la
// fila. Un fallo de descarga no descarta el documento: queda registrado
// sin copia en la nube.
func (e *ExtractionService) processDocument(ctx context.Context, doc *models.Document) bool {
	log := e.Logger.With(zap.String("id", doc.ID))

	if doc.RTFLink != "" {
		data, err := e.downloadResource(ctx, doc.RTFLink)
		if err != nil {
			log.Warn("Descarga del RTF fallida", zap.Error(err), zap.String("url", doc.RTFLink))
		} else {
			year := time.Now().Year()
			if doc.PublicationDate != nil {
				year = doc.PublicationDate.Year()
			}
			key := fmt.Sprintf("sentencias/%d/%s.rtf", year, sanitizeKey(doc.ID))
			s3link, err := storage.UploadFile(ctx, e.S3Client, e.Config.S3Bucket, key, data, e.Config)
			if err != nil {
				log.Error("Subida a S3 fallida", zap.Error(err))
			} else {
				doc.S3Link = s3link
				doc.CloudStored = true
				log.Info("Documento subido a S3", zap.String("s3_link", s3link))
			}
		}
	}

	err := e.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "url", "rtf_link", "s3_link", "cloud_stored", "extraction_date", "updated_at",
		}),
	}).Create(doc).Error
	if err != nil {
		log.Error("No se pudo guardar el documento", zap.Error(err))
		return false
	}

	return true
}

// downloadResource descarga un recurso remoto completo.
func (e *ExtractionService) downloadResource(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "JuridicaNews/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func sanitizeKey(id string) string {
	return strings.ReplaceAll(id, "/", "-")
}
