package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/JLinaresBeltran/Juridica-News-sub000/config"
	"github.com/JLinaresBeltran/Juridica-News-sub000/models"
)

// AIClient habla con una API de chat compatible con OpenAI.
type AIClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewAIClient construye el cliente a partir de la configuración.
func NewAIClient(cfg *config.Config) *AIClient {
	return &AIClient{
		endpoint: cfg.AIEndpoint,
		model:    cfg.AIModel,
		apiKey:   cfg.AIAPIKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Model devuelve el identificador del modelo configurado.
func (c *AIClient) Model() string {
	return c.model
}

// Complete envía un par system/user y devuelve el contenido de la primera
// respuesta del modelo.
func (c *AIClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("cliente LLM sin configurar")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal llm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm sin respuestas")
	}
	return parsed.Choices[0].Message.Content, nil
}

// AnalysisResult es el análisis estructurado que el modelo devuelve en JSON.
type AnalysisResult struct {
	NumeroSentencia   string   `json:"numeroSentencia"`
	MagistradoPonente string   `json:"magistradoPonente"`
	SalaRevision      string   `json:"salaRevision"`
	Expediente        string   `json:"expediente"`
	TemaPrincipal     string   `json:"temaPrincipal"`
	ResumenIA         string   `json:"resumenIA"`
	Decision          string   `json:"decision"`
	Fragmentos        []string `json:"fragmentosAnalisis,omitempty"`
}

// ArticleDraft es el artículo generado que el modelo devuelve en JSON.
type ArticleDraft struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"metaDescription"`
	SeoTitle        string   `json:"seoTitle"`
	Keywords        []string `json:"keywords"`
	Section         string   `json:"section"`
}

// AIService orquesta los llamados al LLM sobre documentos de la base.
type AIService struct {
	DB     *gorm.DB
	Client *AIClient
	Logger *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewAIService crea el servicio de análisis IA.
func NewAIService(db *gorm.DB, client *AIClient, logger *zap.Logger) *AIService {
	return &AIService{
		DB:       db,
		Client:   client,
		Logger:   logger,
		inFlight: make(map[string]bool),
	}
}

const analysisSystemPrompt = `Eres un analista jurídico especializado en jurisprudencia de la Corte Constitucional de Colombia.
Respondes únicamente con un objeto JSON válido, sin texto adicional, con las claves:
numeroSentencia, magistradoPonente, salaRevision, expediente, temaPrincipal, resumenIA, decision.`

// AnalyzeDocument corre el análisis estructurado sobre un documento y
// persiste el resultado. Una segunda invocación para el mismo id mientras
// hay una en vuelo devuelve error sin llamar al modelo.
func (s *AIService) AnalyzeDocument(ctx context.Context, docID string) (*AnalysisResult, error) {
	s.mu.Lock()
	if s.inFlight[docID] {
		s.mu.Unlock()
		return nil, fmt.Errorf("análisis ya en curso para %s", docID)
	}
	s.inFlight[docID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, docID)
		s.mu.Unlock()
	}()

	var doc models.Document
	if err := s.DB.First(&doc, "id = ?", docID).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	s.DB.Model(&doc).Updates(map[string]any{
		"ai_analysis_status": models.AnalysisProcessing,
		"ai_analysis_date":   now,
	})

	log := s.Logger.With(zap.String("id", docID))
	log.Info("Iniciando análisis IA", zap.String("model", s.Client.Model()))

	user := buildAnalysisPrompt(doc)
	raw, err := s.Client.Complete(ctx, analysisSystemPrompt, user)
	if err != nil {
		s.DB.Model(&doc).Update("ai_analysis_status", models.AnalysisFailed)
		return nil, err
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(RepairJSON(raw)), &result); err != nil {
		log.Error("Respuesta del modelo no parseable tras reparación", zap.Error(err))
		s.DB.Model(&doc).Update("ai_analysis_status", models.AnalysisFailed)
		return nil, fmt.Errorf("respuesta del modelo no parseable: %w", err)
	}

	updates := map[string]any{
		"ai_analysis_status": models.AnalysisCompleted,
		"ai_analysis_date":   time.Now(),
		"ai_model":           s.Client.Model(),
		"numero_sentencia":   result.NumeroSentencia,
		"magistrado_ponente": result.MagistradoPonente,
		"sala_revision":      result.SalaRevision,
		"expediente":         result.Expediente,
		"tema_principal":     result.TemaPrincipal,
		"resumen_ia":         result.ResumenIA,
		"decision":           result.Decision,
	}
	if len(result.Fragmentos) > 0 {
		if b, err := json.Marshal(result.Fragmentos); err == nil {
			updates["fragmentos_analisis"] = datatypes.JSON(b)
		}
	}
	if err := s.DB.Model(&doc).Updates(updates).Error; err != nil {
		return nil, err
	}

	log.Info("Análisis IA completado", zap.String("numero_sentencia", result.NumeroSentencia))
	return &result, nil
}

const articleSystemPrompt = `Eres un periodista jurídico. A partir del análisis de una sentencia redactas un artículo de divulgación.
Respondes únicamente con un objeto JSON válido con las claves:
title, content, metaDescription, seoTitle, keywords (lista), section.`

// GenerateArticle genera un borrador de artículo para un documento
// analizado y lo guarda con estado draft.
func (s *AIService) GenerateArticle(ctx context.Context, docID string) (*models.Article, error) {
	var doc models.Document
	if err := s.DB.First(&doc, "id = ?", docID).Error; err != nil {
		return nil, err
	}
	if doc.AIAnalysisStatus != models.AnalysisCompleted {
		return nil, fmt.Errorf("documento %s sin análisis completado", docID)
	}

	raw, err := s.Client.Complete(ctx, articleSystemPrompt, buildArticlePrompt(doc))
	if err != nil {
		return nil, err
	}

	var draft ArticleDraft
	if err := json.Unmarshal([]byte(RepairJSON(raw)), &draft); err != nil {
		return nil, fmt.Errorf("borrador no parseable: %w", err)
	}
	if draft.Title == "" {
		return nil, fmt.Errorf("el modelo no devolvió título")
	}

	keywords, _ := json.Marshal(draft.Keywords)
	article := models.Article{
		ID:              uuid.NewString(),
		DocumentID:      doc.ID,
		Title:           draft.Title,
		Content:         draft.Content,
		MetaDescription: draft.MetaDescription,
		SeoTitle:        draft.SeoTitle,
		Keywords:        datatypes.JSON(keywords),
		Section:         strings.ToLower(draft.Section),
		ReadingTime:     ReadingTime(draft.Content),
		Slug:            Slugify(draft.Title),
		Status:          "draft",
	}
	if err := s.DB.Create(&article).Error; err != nil {
		return nil, err
	}

	s.Logger.Info("Artículo generado",
		zap.String("document_id", doc.ID),
		zap.String("article_id", article.ID),
		zap.String("title", article.Title))
	return &article, nil
}

const titlesSystemPrompt = `Eres un editor jurídico. Propones títulos periodísticos para un artículo sobre una sentencia.
Respondes únicamente con un arreglo JSON de strings.`

// GenerateTitles propone hasta count títulos alternativos para el artículo
// de un documento.
func (s *AIService) GenerateTitles(ctx context.Context, docID string, count int) ([]string, error) {
	if count <= 0 {
		count = 3
	}
	var doc models.Document
	if err := s.DB.First(&doc, "id = ?", docID).Error; err != nil {
		return nil, err
	}

	user := fmt.Sprintf("Propón %d títulos para un artículo sobre la sentencia %s. Tema: %s. Resumen: %s",
		count, doc.ID, doc.TemaPrincipal, doc.ResumenIA)
	raw, err := s.Client.Complete(ctx, titlesSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var titles []string
	if err := json.Unmarshal([]byte(RepairJSON(raw)), &titles); err != nil {
		return nil, fmt.Errorf("títulos no parseables: %w", err)
	}
	if len(titles) > count {
		titles = titles[:count]
	}
	return titles, nil
}

func buildAnalysisPrompt(doc models.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Documento: %s\n", doc.ID)
	if doc.Title != "" {
		fmt.Fprintf(&b, "Título: %s\n", doc.Title)
	}
	if doc.Type != "" {
		fmt.Fprintf(&b, "Tipo: %s\n", doc.Type)
	}
	if doc.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", doc.URL)
	}
	b.WriteString("\nTexto:\n")
	b.WriteString(NormalizeSentenciaText(doc.Summary))
	return b.String()
}

func buildArticlePrompt(doc models.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sentencia: %s (%s)\n", doc.NumeroSentencia, doc.ID)
	fmt.Fprintf(&b, "Magistrado ponente: %s\n", doc.MagistradoPonente)
	fmt.Fprintf(&b, "Tema principal: %s\n", doc.TemaPrincipal)
	fmt.Fprintf(&b, "Decisión: %s\n", doc.Decision)
	fmt.Fprintf(&b, "\nResumen del análisis:\n%s\n", doc.ResumenIA)
	return b.String()
}

// ReadingTime estima minutos de lectura a ~200 palabras por minuto.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Slugify convierte un título en un slug URL-safe.
func Slugify(title string) string {
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
		"ñ", "n", "ü", "u",
	)
	s := replacer.Replace(strings.ToLower(strings.TrimSpace(title)))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
