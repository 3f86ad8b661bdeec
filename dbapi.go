package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/JLinaresBeltran/Juridica-News-sub000/curation"
	"github.com/JLinaresBeltran/Juridica-News-sub000/models"
	"github.com/JLinaresBeltran/Juridica-News-sub000/services"
)

// dbDocumentAPI implementa curation.DocumentAPI directamente sobre la base
// de datos, para que el escritorio de curación opere en el mismo proceso
// sin pasar por HTTP.
type dbDocumentAPI struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ curation.DocumentAPI = (*dbDocumentAPI)(nil)

// aiColumns mapea claves camelCase del payload IA a columnas de la tabla.
var aiColumns = map[string]string{
	"numeroSentencia":   "numero_sentencia",
	"magistradoPonente": "magistrado_ponente",
	"salaRevision":      "sala_revision",
	"expediente":        "expediente",
	"temaPrincipal":     "tema_principal",
	"resumenIA":         "resumen_ia",
	"decision":          "decision",
	"aiAnalysisStatus":  "ai_analysis_status",
	"aiModel":           "ai_model",
}

// Curate aplica una acción de curación sobre el documento. approve con
// articleData lleva el documento a READY y crea o actualiza su artículo.
func (a *dbDocumentAPI) Curate(ctx context.Context, docID string, req curation.CurateRequest) error {
	now := time.Now()
	updates := map[string]any{}

	switch req.Action {
	case "approve":
		updates["status"] = models.StatusApproved
		updates["approved_at"] = now
	case "reject":
		updates["status"] = models.StatusRejected
		updates["rejected_at"] = now
		if req.Notes != "" {
			updates["rejected_reason"] = req.Notes
		}
	default:
		return fmt.Errorf("acción de curación desconocida: %q", req.Action)
	}

	for key, col := range aiColumns {
		if v, ok := req.AIData[key]; ok {
			updates[col] = v
		}
	}

	if req.Action == "approve" && len(req.ArticleData) > 0 {
		updates["status"] = models.StatusReady
		updates["ready_at"] = now
	}

	res := a.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", docID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("documento %s no encontrado", docID)
	}

	if req.Action == "approve" && len(req.ArticleData) > 0 {
		if err := a.upsertArticle(ctx, docID, req.ArticleData); err != nil {
			return err
		}
	}
	return nil
}

// upsertArticle crea o actualiza el artículo asociado al documento a
// partir del payload del escritorio de curación.
func (a *dbDocumentAPI) upsertArticle(ctx context.Context, docID string, data map[string]any) error {
	str := func(key string) string {
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}

	title := str("title")
	content := str("content")

	var keywords datatypes.JSON
	if raw := str("keywords"); raw != "" {
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if b, err := json.Marshal(parts); err == nil {
			keywords = b
		}
	}

	var article models.Article
	err := a.db.WithContext(ctx).Where("document_id = ?", docID).First(&article).Error
	switch {
	case err == nil:
		updates := map[string]any{}
		if title != "" {
			updates["title"] = title
			updates["slug"] = services.Slugify(title)
		}
		if content != "" {
			updates["content"] = content
			updates["reading_time"] = services.ReadingTime(content)
		}
		if v := str("image"); v != "" {
			updates["image_url"] = v
		}
		if v := str("description"); v != "" {
			updates["meta_description"] = v
		}
		if v := str("metaTitle"); v != "" {
			updates["seo_title"] = v
		}
		if v := str("section"); v != "" {
			updates["section"] = v
		}
		if keywords != nil {
			updates["keywords"] = keywords
		}
		if len(updates) == 0 {
			return nil
		}
		return a.db.WithContext(ctx).Model(&article).Updates(updates).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if title == "" {
			return fmt.Errorf("articleData sin título para el documento %s", docID)
		}
		article = models.Article{
			ID:              uuid.NewString(),
			DocumentID:      docID,
			Title:           title,
			Content:         content,
			ImageURL:        str("image"),
			MetaDescription: str("description"),
			SeoTitle:        str("metaTitle"),
			Keywords:        keywords,
			Section:         str("section"),
			ReadingTime:     services.ReadingTime(content),
			Slug:            services.Slugify(title),
			Status:          "draft",
		}
		return a.db.WithContext(ctx).Create(&article).Error
	default:
		return err
	}
}

// UpdateStatus aplica un cambio de estado directo (PUBLISHED, ARCHIVED...).
func (a *dbDocumentAPI) UpdateStatus(ctx context.Context, docID string, upd curation.StatusUpdate) error {
	updates := map[string]any{"status": upd.Status}
	if upd.PublishedAt != nil {
		updates["published_at"] = *upd.PublishedAt
	}
	if upd.ArchivedAt != nil {
		updates["archived_at"] = *upd.ArchivedAt
	}
	if upd.ArchivedBy != "" {
		updates["archived_by"] = upd.ArchivedBy
	}
	if upd.ArchiveReason != "" {
		updates["archive_reason"] = upd.ArchiveReason
	}

	res := a.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", docID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("documento %s no encontrado", docID)
	}
	return nil
}

// ListByStatus devuelve los documentos de un estado como registros de curación.
func (a *dbDocumentAPI) ListByStatus(ctx context.Context, status string) ([]curation.Document, error) {
	var docs []models.Document
	if err := a.db.WithContext(ctx).Where("status = ?", status).Order("updated_at desc").Find(&docs).Error; err != nil {
		return nil, err
	}
	out := make([]curation.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, toCurationDocument(d))
	}
	return out, nil
}

// toCurationDocument convierte una fila de la base al registro de curación.
func toCurationDocument(d models.Document) curation.Document {
	var fragmentos []string
	if len(d.FragmentosAnalisis) > 0 {
		_ = json.Unmarshal(d.FragmentosAnalisis, &fragmentos)
	}
	return curation.Document{
		ID:                 d.ID,
		Source:             d.Source,
		Title:              d.Title,
		Type:               d.Type,
		Area:               d.Area,
		Summary:            d.Summary,
		URL:                d.URL,
		PublicationDate:    d.PublicationDate,
		ExtractionDate:     d.ExtractionDate,
		ApprovedAt:         d.ApprovedAt,
		RejectedAt:         d.RejectedAt,
		RejectedReason:     d.RejectedReason,
		ReadyAt:            d.ReadyAt,
		PublishedAt:        d.PublishedAt,
		NumeroSentencia:    d.NumeroSentencia,
		MagistradoPonente:  d.MagistradoPonente,
		SalaRevision:       d.SalaRevision,
		Expediente:         d.Expediente,
		TemaPrincipal:      d.TemaPrincipal,
		ResumenIA:          d.ResumenIA,
		Decision:           d.Decision,
		AIAnalysisStatus:   d.AIAnalysisStatus,
		AIAnalysisDate:     d.AIAnalysisDate,
		AIModel:            d.AIModel,
		FragmentosAnalisis: fragmentos,
	}
}

// articleDataFromModel arma el ArticleData del escritorio a partir del
// artículo guardado.
func articleDataFromModel(a models.Article) curation.ArticleData {
	var keywords []string
	if len(a.Keywords) > 0 {
		_ = json.Unmarshal(a.Keywords, &keywords)
	}
	var tags []string
	if len(a.CustomTags) > 0 {
		_ = json.Unmarshal(a.CustomTags, &tags)
	}
	return curation.ArticleData{
		Title:   a.Title,
		Content: a.Content,
		Image:   a.ImageURL,
		Metadata: &curation.ArticleMetadata{
			Description: a.MetaDescription,
			Keywords:    keywords,
			Section:     a.Section,
			CustomTags:  tags,
			SeoTitle:    a.SeoTitle,
			ReadingTime: a.ReadingTime,
		},
	}
}
