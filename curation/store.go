package curation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// motivo por defecto cuando el curador rechaza sin indicar uno.
const defaultRejectReason = "Rechazado por el curador"

// Store es la fuente de verdad, dentro del proceso, del bucket de ciclo
// de vida que ocupa cada documento, con consistencia eventual (no
// garantizada) contra el sistema de registro remoto.
//
// Las mutaciones locales son optimistas: un fallo de sincronización no
// revierte el estado local, solo queda registrado en SyncError. La única
// excepción es MoveToReady, que es remote-first.
type Store struct {
	API       DocumentAPI
	Snapshots SnapshotStore
	Bus       *Bus
	Logger    *zap.Logger

	// ReadyEmitDelay deja asentar la escritura remota antes de que las
	// vistas dependientes re-consulten tras document:ready.
	ReadyEmitDelay time.Duration

	mu        sync.Mutex
	approved  []Document
	rejected  []Document
	ready     []Document
	published []Document
	archived  []ArchivedDocument

	isLoading bool
	lastSync  *time.Time
	syncError string
}

// NewStore crea un Store vacío con sus colaboradores inyectados.
func NewStore(api DocumentAPI, snapshots SnapshotStore, bus *Bus, logger *zap.Logger) *Store {
	return &Store{
		API:            api,
		Snapshots:      snapshots,
		Bus:            bus,
		Logger:         logger,
		ReadyEmitDelay: 500 * time.Millisecond,
	}
}

// Load restaura el estado desde el snapshot persistido, aplicando la
// migración de esquema si corresponde.
func (s *Store) Load() error {
	raw, err := s.Snapshots.Load(SnapshotKey)
	if err != nil {
		return err
	}
	snap, err := loadSnapshot(raw)
	if err != nil {
		// snapshot ilegible: arrancar vacío en lugar de fallar el arranque
		s.Logger.Warn("Snapshot de curación ilegible, iniciando vacío", zap.Error(err))
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved = snap.Approved
	s.rejected = snap.Rejected
	s.ready = snap.Ready
	s.published = snap.Published
	s.archived = snap.Archived
	s.lastSync = snap.LastSync
	return nil
}

// ApproveDocument inserta una copia del documento en approved con
// approvedAt fijado, removiendo cualquier entrada previa del mismo id.
// Con syncToBackend envía la acción approve con la proyección IA
// filtrada; un fallo remoto no se revierte.
func (s *Store) ApproveDocument(ctx context.Context, doc Document, syncToBackend bool, articleData *ArticleData) error {
	now := time.Now()

	s.mu.Lock()
	s.isLoading = true
	local := doc
	local.ApprovedAt = &now
	s.removeLocked(doc.ID, &s.approved, &s.rejected, &s.ready)
	s.approved = append(s.approved, local)
	s.persistLocked()
	s.mu.Unlock()

	if syncToBackend {
		req := CurateRequest{
			Action: "approve",
			AIData: aiPayload(doc),
		}
		if articleData != nil {
			req.ArticleData = articlePayload(articleData)
		}
		if err := s.API.Curate(ctx, doc.ID, req); err != nil {
			s.Logger.Error("Sincronización de aprobación fallida", zap.String("id", doc.ID), zap.Error(err))
			s.setSyncError(err.Error())
			s.Bus.Publish(EventApproved)
			return nil
		}
	}
	s.finishSync()
	s.Bus.Publish(EventApproved)
	return nil
}

// RejectDocument mueve el documento a rejected con rejectedAt y el motivo
// dado (o uno por defecto). Simétrico a ApproveDocument.
func (s *Store) RejectDocument(ctx context.Context, doc Document, reason string, syncToBackend bool) error {
	if reason == "" {
		reason = defaultRejectReason
	}
	now := time.Now()

	s.mu.Lock()
	s.isLoading = true
	local := doc
	local.RejectedAt = &now
	local.RejectedReason = reason
	s.removeLocked(doc.ID, &s.approved, &s.rejected, &s.ready)
	s.rejected = append(s.rejected, local)
	s.persistLocked()
	s.mu.Unlock()

	if syncToBackend {
		req := CurateRequest{
			Action: "reject",
			AIData: aiPayload(doc),
			Notes:  reason,
		}
		if err := s.API.Curate(ctx, doc.ID, req); err != nil {
			s.Logger.Error("Sincronización de rechazo fallida", zap.String("id", doc.ID), zap.Error(err))
			s.setSyncError(err.Error())
			s.Bus.Publish(EventRejected)
			return nil
		}
	}
	s.finishSync()
	s.Bus.Publish(EventRejected)
	return nil
}

// ArchiveDocument mueve el documento a archived con los tres campos de
// archivo obligatorios. El efecto remoto es un PUT completo con
// status=ARCHIVED; aquí no se aplica filtrado de vacíos.
func (s *Store) ArchiveDocument(ctx context.Context, doc Document, reason, archivedBy string, syncToBackend bool) error {
	now := time.Now()

	s.mu.Lock()
	s.isLoading = true
	s.removeLocked(doc.ID, &s.approved, &s.rejected, &s.ready)
	s.archived = append(s.archived, ArchivedDocument{
		Document:   doc,
		ArchivedAt: now,
		ArchivedBy: archivedBy,
		Reason:     reason,
	})
	s.persistLocked()
	s.mu.Unlock()

	if syncToBackend {
		upd := StatusUpdate{
			Status:        "ARCHIVED",
			ReviewedAt:    &now,
			ArchivedAt:    &now,
			ArchivedBy:    archivedBy,
			ArchiveReason: reason,
		}
		if err := s.API.UpdateStatus(ctx, doc.ID, upd); err != nil {
			s.Logger.Error("Sincronización de archivo fallida", zap.String("id", doc.ID), zap.Error(err))
			s.setSyncError(err.Error())
			return nil
		}
	}
	s.finishSync()
	return nil
}

// MoveToReady es la única transición remote-first: no se compromete
// localmente a READY si el backend no aceptó la llamada de aprobación +
// creación de artículo. Si la llamada remota falla, el error se
// devuelve al llamador y el estado local queda intacto. En éxito se
// inserta un registro liviano en ready (preview de contenido, imagen
// descartada, keywords y resumen truncados).
func (s *Store) MoveToReady(ctx context.Context, doc Document, articleData ArticleData, syncToBackend bool) error {
	if syncToBackend {
		req := CurateRequest{
			Action:      "approve",
			AIData:      aiPayload(doc),
			ArticleData: articlePayload(&articleData),
		}
		if err := s.API.Curate(ctx, doc.ID, req); err != nil {
			s.Logger.Error("moveToReady: llamada remota fallida, sin mutación local",
				zap.String("id", doc.ID), zap.Error(err))
			s.setSyncError(err.Error())
			return err
		}
	}

	now := time.Now()
	light := lightweightReady(doc, articleData)
	light.ReadyAt = &now

	s.mu.Lock()
	s.removeLocked(doc.ID, &s.approved, &s.ready)
	s.ready = append(s.ready, light)
	if err := s.persistLocked(); errors.Is(err, ErrQuotaExceeded) {
		// Recuperación de cuota: purgar borradores de artículo y vaciar
		// ready; la lista completa se recarga del backend.
		s.Logger.Warn("Cuota de snapshot excedida, purgando borradores y vaciando ready",
			zap.String("id", doc.ID))
		if derr := s.Snapshots.DeletePrefix(DraftKeyPrefix); derr != nil {
			s.Logger.Warn("Purga de borradores fallida", zap.Error(derr))
		}
		s.ready = nil
		s.persistLocked()
	}
	s.mu.Unlock()

	s.finishSync()

	delay := s.ReadyEmitDelay
	time.AfterFunc(delay, func() {
		s.Bus.Publish(EventReady)
	})
	return nil
}

// PublishDocument busca el id en ready; si no está, es un no-op. Mueve a
// published con publishedAt y sincroniza un PUT status=PUBLISHED.
func (s *Store) PublishDocument(ctx context.Context, docID string, syncToBackend bool) error {
	now := time.Now()

	s.mu.Lock()
	idx := indexOf(s.ready, docID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	doc := s.ready[idx]
	doc.PublishedAt = &now
	s.ready = append(s.ready[:idx], s.ready[idx+1:]...)
	s.published = append(s.published, doc)
	s.persistLocked()
	s.mu.Unlock()

	if syncToBackend {
		upd := StatusUpdate{Status: "PUBLISHED", PublishedAt: &now}
		if err := s.API.UpdateStatus(ctx, docID, upd); err != nil {
			s.Logger.Error("Sincronización de publicación fallida", zap.String("id", docID), zap.Error(err))
			s.setSyncError(err.Error())
			s.Bus.Publish(EventPublished)
			return nil
		}
	}
	s.finishSync()
	s.Bus.Publish(EventPublished)
	return nil
}

// UndoApproval remueve el documento de approved. Puramente local.
func (s *Store) UndoApproval(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(docID, &s.approved)
	s.persistLocked()
}

// UndoReady devuelve el documento de ready a approved, limpiando los
// campos propios de la etapa (readyAt, articleData). Puramente local.
func (s *Store) UndoReady(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.ready, docID)
	if idx < 0 {
		return
	}
	doc := s.ready[idx]
	doc.ReadyAt = nil
	doc.ArticleData = nil
	s.ready = append(s.ready[:idx], s.ready[idx+1:]...)
	s.removeLocked(docID, &s.approved)
	s.approved = append(s.approved, doc)
	s.persistLocked()
}

// UndoRejection remueve el documento de rejected, devolviéndolo
// implícitamente al pool PENDING externo. Puramente local.
func (s *Store) UndoRejection(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(docID, &s.rejected)
	s.persistLocked()
}

// RestoreFromArchive devuelve un documento archivado a approved,
// descartando el contexto de archivo. Puramente local.
func (s *Store) RestoreFromArchive(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.archived {
		if a.ID == docID {
			doc := a.Document
			s.archived = append(s.archived[:i], s.archived[i+1:]...)
			s.removeLocked(docID, &s.approved)
			s.approved = append(s.approved, doc)
			s.persistLocked()
			return
		}
	}
}

// Predicados de membresía, consistentes con la invariante de bucket único.

func (s *Store) IsDocumentApproved(docID string) bool  { return s.contains(&s.approved, docID) }
func (s *Store) IsDocumentRejected(docID string) bool  { return s.contains(&s.rejected, docID) }
func (s *Store) IsDocumentReady(docID string) bool     { return s.contains(&s.ready, docID) }
func (s *Store) IsDocumentPublished(docID string) bool { return s.contains(&s.published, docID) }

func (s *Store) IsDocumentArchived(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.archived {
		if a.ID == docID {
			return true
		}
	}
	return false
}

// Approved devuelve una copia de la colección approved.
func (s *Store) Approved() []Document { return s.copyBucket(&s.approved) }

// Rejected devuelve una copia de la colección rejected.
func (s *Store) Rejected() []Document { return s.copyBucket(&s.rejected) }

// Ready devuelve una copia de la colección ready.
func (s *Store) Ready() []Document { return s.copyBucket(&s.ready) }

// Published devuelve una copia de la colección published.
func (s *Store) Published() []Document { return s.copyBucket(&s.published) }

// Archived devuelve una copia de la colección archived.
func (s *Store) Archived() []ArchivedDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ArchivedDocument, len(s.archived))
	copy(out, s.archived)
	return out
}

// SyncError devuelve el último error de sincronización, o "" si no hay.
func (s *Store) SyncError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncError
}

// LastSync devuelve el timestamp de la última sincronización exitosa.
func (s *Store) LastSync() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// IsLoading indica si hay una operación en curso.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

// ClearAll vacía las cinco colecciones solo en memoria.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved, s.rejected, s.ready, s.published, s.archived = nil, nil, nil, nil, nil
}

// ResetToInitialState vacía la memoria y elimina la clave de snapshot.
func (s *Store) ResetToInitialState() {
	s.ClearAll()
	if err := s.Snapshots.Delete(SnapshotKey); err != nil {
		s.Logger.Warn("No se pudo eliminar el snapshot", zap.Error(err))
	}
}

// ResetSystemCompletely elimina además las demás claves conocidas
// (auth/app/preferences/temp) de forma best-effort; los fallos
// individuales se registran y no se propagan. Sin efecto remoto.
func (s *Store) ResetSystemCompletely() {
	s.ResetToInitialState()
	for _, key := range systemKeys {
		if err := s.Snapshots.Delete(key); err != nil {
			s.Logger.Warn("No se pudo eliminar clave de sistema",
				zap.String("key", key), zap.Error(err))
		}
	}
	if err := s.Snapshots.DeletePrefix(DraftKeyPrefix); err != nil {
		s.Logger.Warn("No se pudieron eliminar los borradores", zap.Error(err))
	}
}

// removeLocked elimina docID de los buckets dados. Requiere s.mu.
func (s *Store) removeLocked(docID string, buckets ...*[]Document) {
	for _, b := range buckets {
		if idx := indexOf(*b, docID); idx >= 0 {
			*b = append((*b)[:idx], (*b)[idx+1:]...)
		}
	}
}

// persistLocked serializa y guarda el snapshot. Requiere s.mu. Devuelve
// ErrQuotaExceeded sin registrar para que el llamador pueda recuperarse;
// otros errores se registran y no se propagan (el estado en memoria
// sigue siendo autoritativo hasta la próxima recarga).
func (s *Store) persistLocked() error {
	snap := snapshot{
		Approved:  s.approved,
		Rejected:  s.rejected,
		Ready:     s.ready,
		Published: s.published,
		Archived:  s.archived,
		LastSync:  s.lastSync,
	}
	data, err := marshalSnapshot(snap)
	if err != nil {
		s.Logger.Error("No se pudo serializar el snapshot", zap.Error(err))
		return nil
	}
	if err := s.Snapshots.Save(SnapshotKey, data); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return err
		}
		s.Logger.Error("No se pudo guardar el snapshot", zap.Error(err))
		s.syncError = err.Error()
	}
	return nil
}

func (s *Store) setSyncError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncError = msg
	s.isLoading = false
}

func (s *Store) finishSync() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncError = ""
	s.isLoading = false
	s.lastSync = &now
}

func (s *Store) contains(bucket *[]Document, docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(*bucket, docID) >= 0
}

func (s *Store) copyBucket(bucket *[]Document) []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Document, len(*bucket))
	copy(out, *bucket)
	return out
}

func indexOf(docs []Document, docID string) int {
	for i, d := range docs {
		if d.ID == docID {
			return i
		}
	}
	return -1
}
