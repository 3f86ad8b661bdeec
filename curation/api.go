package curation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CurateRequest es el cuerpo de POST /documents/{id}/curate.
type CurateRequest struct {
	Action      string         `json:"action"` // approve | reject
	AIData      map[string]any `json:"aiData,omitempty"`
	ArticleData map[string]any `json:"articleData,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

// StatusUpdate es el cuerpo de PUT /documents/{id}.
type StatusUpdate struct {
	Status        string     `json:"status"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	ArchivedAt    *time.Time `json:"archivedAt,omitempty"`
	ArchivedBy    string     `json:"archivedBy,omitempty"`
	ArchiveReason string     `json:"archiveReason,omitempty"`
}

// DocumentAPI es el sistema de registro remoto de documentos.
type DocumentAPI interface {
	Curate(ctx context.Context, docID string, req CurateRequest) error
	UpdateStatus(ctx context.Context, docID string, upd StatusUpdate) error
	ListByStatus(ctx context.Context, status string) ([]Document, error)
}

// FilterEmpty elimina de un mapa toda clave cuyo valor sea nil o cadena
// vacía, para no sobreescribir campos del servidor con valores vacíos
// cuando el cliente tiene datos incompletos.
func FilterEmpty(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// aiPayload proyecta los campos de análisis IA de un documento,
// filtrando los vacíos.
func aiPayload(doc Document) map[string]any {
	m := map[string]any{
		"numeroSentencia":   doc.NumeroSentencia,
		"magistradoPonente": doc.MagistradoPonente,
		"salaRevision":      doc.SalaRevision,
		"expediente":        doc.Expediente,
		"temaPrincipal":     doc.TemaPrincipal,
		"resumenIA":         doc.ResumenIA,
		"decision":          doc.Decision,
	}
	if doc.AIAnalysisStatus != "" {
		m["aiAnalysisStatus"] = doc.AIAnalysisStatus
	}
	if doc.AIModel != "" {
		m["aiModel"] = doc.AIModel
	}
	if doc.AIAnalysisDate != nil {
		m["aiAnalysisDate"] = doc.AIAnalysisDate
	}
	return FilterEmpty(m)
}

// articlePayload proyecta los datos del artículo para el backend:
// keywords unidas por coma, sección en minúsculas.
func articlePayload(art *ArticleData) map[string]any {
	if art == nil {
		return nil
	}
	m := map[string]any{
		"title":   art.Title,
		"content": art.Content,
		"image":   art.Image,
		"imageId": art.ImageID,
	}
	if art.Metadata != nil {
		m["metaTitle"] = art.Metadata.SeoTitle
		m["description"] = art.Metadata.Description
		m["keywords"] = strings.Join(art.Metadata.Keywords, ", ")
		m["section"] = strings.ToLower(art.Metadata.Section)
	}
	return FilterEmpty(m)
}

// APIClient implementa DocumentAPI contra la API REST de documentos.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ DocumentAPI = (*APIClient)(nil)

// NewAPIClient crea un cliente para la API de documentos.
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Curate envía una acción de curación (approve/reject) al backend.
func (c *APIClient) Curate(ctx context.Context, docID string, req CurateRequest) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("%s/documents/%s/curate", c.baseURL, docID), req, nil)
}

// UpdateStatus actualiza el estado de un documento con un PUT completo.
func (c *APIClient) UpdateStatus(ctx context.Context, docID string, upd StatusUpdate) error {
	return c.send(ctx, http.MethodPut, fmt.Sprintf("%s/documents/%s", c.baseURL, docID), upd, nil)
}

// ListByStatus recarga los documentos de un estado desde el backend.
func (c *APIClient) ListByStatus(ctx context.Context, status string) ([]Document, error) {
	var docs []Document
	url := fmt.Sprintf("%s/documents?status=%s", c.baseURL, status)
	if err := c.send(ctx, http.MethodGet, url, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *APIClient) send(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("api error %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
