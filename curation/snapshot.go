package curation

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// snapshotVersion es la versión actual del esquema persistido.
	snapshotVersion = 3

	// maxPersistedPerBucket acota cada colección persistida a sus
	// entradas más recientes.
	maxPersistedPerBucket = 20

	// migrationSizeLimit: un snapshot de versión anterior que supere
	// este tamaño serializado se descarta en vez de migrarse. Es más
	// seguro perder caché local de UI que arrastrar un blob inflado.
	migrationSizeLimit = 500 * 1024

	maxResumenLen  = 500
	maxPreviewLen  = 200
	maxKeywordsLen = 5
)

// snapshot es la forma serializada del estado de curación.
type snapshot struct {
	Version   int                `json:"version"`
	Approved  []Document         `json:"approved"`
	Rejected  []Document         `json:"rejected"`
	Ready     []Document         `json:"ready"`
	Published []Document         `json:"published"`
	Archived  []ArchivedDocument `json:"archived"`
	LastSync  *time.Time         `json:"lastSync,omitempty"`
}

// stripForPersist aplica la transformación de reducción de tamaño a un
// documento antes de serializarlo: resumenIA truncado, fragmentos
// descartados, contenido e imagen del artículo reemplazados por preview
// y bandera.
func stripForPersist(doc Document) Document {
	out := doc
	if len(out.ResumenIA) > maxResumenLen {
		out.ResumenIA = out.ResumenIA[:maxResumenLen]
	}
	out.FragmentosAnalisis = nil
	if doc.ArticleData != nil {
		out.ArticleData = stripArticleData(doc.ArticleData)
	}
	return out
}

// stripArticleData devuelve una copia liviana del artículo.
func stripArticleData(art *ArticleData) *ArticleData {
	slim := &ArticleData{
		Title:          art.Title,
		ContentPreview: art.ContentPreview,
		ImageID:        art.ImageID,
		HasImage:       art.HasImage || art.Image != "",
	}
	if slim.ContentPreview == "" && art.Content != "" {
		slim.ContentPreview = truncate(art.Content, maxPreviewLen)
	}
	if art.Metadata != nil {
		meta := *art.Metadata
		if len(meta.Keywords) > maxKeywordsLen {
			meta.Keywords = meta.Keywords[:maxKeywordsLen]
		}
		slim.Metadata = &meta
	}
	return slim
}

// lightweightReady construye el registro liviano que entra a la colección
// ready tras un moveToReady exitoso.
func lightweightReady(doc Document, art ArticleData) Document {
	out := stripForPersist(doc)
	out.ArticleData = stripArticleData(&art)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// capBucket corta una colección a sus últimas max entradas (las más
// recientes por orden de inserción; no se garantiza orden por fecha).
func capBucket[T any](in []T, max int) []T {
	if len(in) <= max {
		return in
	}
	return in[len(in)-max:]
}

// marshalSnapshot aplica la transformación de persistencia a todas las
// colecciones, las acota y serializa el resultado.
func marshalSnapshot(snap snapshot) ([]byte, error) {
	out := snapshot{
		Version:  snapshotVersion,
		LastSync: snap.LastSync,
	}
	out.Approved = capBucket(stripAll(snap.Approved), maxPersistedPerBucket)
	out.Rejected = capBucket(stripAll(snap.Rejected), maxPersistedPerBucket)
	out.Ready = capBucket(stripAll(snap.Ready), maxPersistedPerBucket)
	out.Published = capBucket(stripAll(snap.Published), maxPersistedPerBucket)

	archived := make([]ArchivedDocument, 0, len(snap.Archived))
	for _, a := range snap.Archived {
		a.Document = stripForPersist(a.Document)
		archived = append(archived, a)
	}
	out.Archived = capBucket(archived, maxPersistedPerBucket)

	return json.Marshal(out)
}

func stripAll(in []Document) []Document {
	out := make([]Document, 0, len(in))
	for _, d := range in {
		out = append(out, stripForPersist(d))
	}
	return out
}

// loadSnapshot deserializa un snapshot persistido aplicando la migración
// de esquema. Un blob de versión anterior que supere migrationSizeLimit
// se descarta por completo; de lo contrario se re-aplica la
// transformación de reducción y se conserva.
func loadSnapshot(raw []byte) (snapshot, error) {
	var empty snapshot
	if len(raw) == 0 {
		return empty, nil
	}

	var versioned struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &versioned); err != nil {
		return empty, fmt.Errorf("snapshot corrupto: %w", err)
	}

	if versioned.Version < snapshotVersion && len(raw) > migrationSizeLimit {
		return empty, nil
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return empty, fmt.Errorf("snapshot corrupto: %w", err)
	}

	if snap.Version < snapshotVersion {
		snap.Approved = stripAll(snap.Approved)
		snap.Rejected = stripAll(snap.Rejected)
		snap.Ready = stripAll(snap.Ready)
		snap.Published = stripAll(snap.Published)
		for i := range snap.Archived {
			snap.Archived[i].Document = stripForPersist(snap.Archived[i].Document)
		}
		snap.Version = snapshotVersion
	}
	return snap, nil
}
