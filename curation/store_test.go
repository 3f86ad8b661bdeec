package curation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JLinaresBeltran/Juridica-News-sub000/curation"
)

// memStore es un SnapshotStore en memoria para pruebas.
type memStore struct {
	mu            sync.Mutex
	data          map[string][]byte
	failQuotaOnce bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failQuotaOnce {
		m.failQuotaOnce = false
		return curation.ErrQuotaExceeded
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) DeletePrefix(prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memStore) get(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *memStore) put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
}

// fakeAPI registra las llamadas remotas y permite forzar fallos.
type fakeAPI struct {
	mu          sync.Mutex
	curateCalls []curation.CurateRequest
	curateIDs   []string
	statusCalls []curation.StatusUpdate
	curateErr   error
	statusErr   error
}

func (f *fakeAPI) Curate(_ context.Context, docID string, req curation.CurateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.curateErr != nil {
		return f.curateErr
	}
	f.curateIDs = append(f.curateIDs, docID)
	f.curateCalls = append(f.curateCalls, req)
	return nil
}

func (f *fakeAPI) UpdateStatus(_ context.Context, _ string, upd curation.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusCalls = append(f.statusCalls, upd)
	return nil
}

func (f *fakeAPI) ListByStatus(_ context.Context, _ string) ([]curation.Document, error) {
	return nil, nil
}

func newTestStore(t *testing.T) (*curation.Store, *fakeAPI, *memStore) {
	t.Helper()
	api := &fakeAPI{}
	snaps := newMemStore()
	store := curation.NewStore(api, snaps, curation.NewBus(), zap.NewNop())
	store.ReadyEmitDelay = time.Millisecond
	return store, api, snaps
}

func bucketCount(s *curation.Store, docID string) int {
	n := 0
	for _, in := range []bool{
		s.IsDocumentApproved(docID),
		s.IsDocumentRejected(docID),
		s.IsDocumentReady(docID),
		s.IsDocumentPublished(docID),
		s.IsDocumentArchived(docID),
	} {
		if in {
			n++
		}
	}
	return n
}

func TestStore_SingleBucketInvariant(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	doc := curation.Document{ID: "T-001/25", Title: "Sentencia de tutela"}

	require.NoError(t, store.ApproveDocument(ctx, doc, false, nil))
	assert.Equal(t, 1, bucketCount(store, doc.ID))

	require.NoError(t, store.RejectDocument(ctx, doc, "duplicado", false))
	assert.Equal(t, 1, bucketCount(store, doc.ID))
	assert.False(t, store.IsDocumentApproved(doc.ID))

	require.NoError(t, store.ArchiveDocument(ctx, doc, "obsoleto", "Jane", false))
	assert.Equal(t, 1, bucketCount(store, doc.ID))
	assert.True(t, store.IsDocumentArchived(doc.ID))

	store.RestoreFromArchive(doc.ID)
	assert.Equal(t, 1, bucketCount(store, doc.ID))
	assert.True(t, store.IsDocumentApproved(doc.ID))
}

func TestStore_ApproveIdempotence(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	doc := curation.Document{ID: "C-042/25", Title: "Control de constitucionalidad"}

	require.NoError(t, store.ApproveDocument(ctx, doc, false, nil))
	first := store.Approved()[0].ApprovedAt
	require.NotNil(t, first)

	require.NoError(t, store.ApproveDocument(ctx, doc, false, nil))
	approved := store.Approved()
	require.Len(t, approved, 1)
	require.NotNil(t, approved[0].ApprovedAt)
	assert.False(t, approved[0].ApprovedAt.Before(*first))
}

func TestStore_RejectScenario(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	doc := curation.Document{ID: "A1", Title: "Doc"}

	require.NoError(t, store.ApproveDocument(ctx, doc, false, nil))
	require.NoError(t, store.RejectDocument(ctx, doc, "duplicate", false))

	assert.Empty(t, store.Approved())
	rejected := store.Rejected()
	require.Len(t, rejected, 1)
	assert.Equal(t, "A1", rejected[0].ID)
	assert.Equal(t, "duplicate", rejected[0].RejectedReason)
	assert.NotNil(t, rejected[0].RejectedAt)
}

func TestStore_RejectDefaultReason(t *testing.T) {
	store, _, _ := newTestStore(t)
	require.NoError(t, store.RejectDocument(context.Background(), curation.Document{ID: "A9"}, "", false))
	rejected := store.Rejected()
	require.Len(t, rejected, 1)
	assert.NotEmpty(t, rejected[0].RejectedReason)
}

func TestStore_ArchiveFromReady(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	doc := curation.Document{ID: "A2", Title: "Providencia"}

	require.NoError(t, store.MoveToReady(ctx, doc, curation.ArticleData{Title: "Artículo"}, false))
	require.True(t, store.IsDocumentReady("A2"))

	require.NoError(t, store.ArchiveDocument(ctx, doc, "obsolete", "Jane", false))
	assert.False(t, store.IsDocumentReady("A2"))
	archived := store.Archived()
	require.Len(t, archived, 1)
	assert.Equal(t, "Jane", archived[0].ArchivedBy)
	assert.Equal(t, "obsolete", archived[0].Reason)
	assert.False(t, archived[0].ArchivedAt.IsZero())
}

func TestStore_ApproveSyncFailureKeepsLocalState(t *testing.T) {
	store, api, _ := newTestStore(t)
	api.curateErr = errors.New("backend caído")

	err := store.ApproveDocument(context.Background(), curation.Document{ID: "T-100/25"}, true, nil)
	require.NoError(t, err)

	// mutación optimista intacta, error visible en SyncError
	assert.True(t, store.IsDocumentApproved("T-100/25"))
	assert.Contains(t, store.SyncError(), "backend caído")
	assert.False(t, store.IsLoading())
}

func TestStore_MoveToReadyRemoteFirst(t *testing.T) {
	ctx := context.Background()

	t.Run("remote failure leaves state untouched and propagates", func(t *testing.T) {
		store, api, _ := newTestStore(t)
		doc := curation.Document{ID: "SU-003/25"}
		require.NoError(t, store.ApproveDocument(ctx, doc, false, nil))

		api.curateErr = errors.New("500 internal")
		err := store.MoveToReady(ctx, doc, curation.ArticleData{Title: "t", Content: "c"}, true)
		require.Error(t, err)

		assert.True(t, store.IsDocumentApproved(doc.ID))
		assert.False(t, store.IsDocumentReady(doc.ID))
		assert.NotEmpty(t, store.SyncError())
	})

	t.Run("remote success commits lightweight record", func(t *testing.T) {
		store, api, _ := newTestStore(t)
		doc := curation.Document{
			ID:                 "T-777/25",
			ResumenIA:          strings.Repeat("r", 900),
			FragmentosAnalisis: []string{"fragmento largo"},
		}
		require.NoError(t, store.ApproveDocument(ctx, doc, false, nil))

		art := curation.ArticleData{
			Title:   "Título",
			Content: strings.Repeat("x", 5000),
			Image:   "data:image/png;base64,AAAA",
			Metadata: &curation.ArticleMetadata{
				Keywords: []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7"},
				Section:  "Constitucional",
				SeoTitle: "SEO",
			},
		}
		require.NoError(t, store.MoveToReady(ctx, doc, art, true))

		assert.False(t, store.IsDocumentApproved(doc.ID))
		ready := store.Ready()
		require.Len(t, ready, 1)
		got := ready[0]
		require.NotNil(t, got.ReadyAt)
		assert.Nil(t, got.FragmentosAnalisis)
		assert.LessOrEqual(t, len(got.ResumenIA), 500)
		require.NotNil(t, got.ArticleData)
		assert.Empty(t, got.ArticleData.Content)
		assert.Empty(t, got.ArticleData.Image)
		assert.True(t, got.ArticleData.HasImage)
		assert.LessOrEqual(t, len(got.ArticleData.ContentPreview), 200)
		assert.Len(t, got.ArticleData.Metadata.Keywords, 5)

		// la llamada remota lleva la proyección del artículo completa
		require.NotEmpty(t, api.curateCalls)
		sent := api.curateCalls[len(api.curateCalls)-1]
		assert.Equal(t, "approve", sent.Action)
		assert.Equal(t, "k1, k2, k3, k4, k5, k6, k7", sent.ArticleData["keywords"])
		assert.Equal(t, "constitucional", sent.ArticleData["section"])
	})
}

func TestStore_MoveToReadyQuotaRecovery(t *testing.T) {
	store, _, snaps := newTestStore(t)
	ctx := context.Background()
	doc := curation.Document{ID: "T-900/25"}

	snaps.put(curation.DraftKeyPrefix+"T-900/25", []byte(`{"draft":true}`))
	snaps.failQuotaOnce = true

	err := store.MoveToReady(ctx, doc, curation.ArticleData{Title: "t"}, false)
	require.NoError(t, err)

	// recuperación: borradores purgados, ready vaciado, sin re-lanzar
	assert.Nil(t, snaps.get(curation.DraftKeyPrefix+"T-900/25"))
	assert.Empty(t, store.Ready())
}

func TestStore_PublishDocument(t *testing.T) {
	store, api, _ := newTestStore(t)
	ctx := context.Background()

	t.Run("no-op when id is not in ready", func(t *testing.T) {
		require.NoError(t, store.PublishDocument(ctx, "no-existe", true))
		assert.Empty(t, store.Published())
		assert.Empty(t, api.statusCalls)
	})

	t.Run("moves ready document to published", func(t *testing.T) {
		doc := curation.Document{ID: "T-555/25"}
		require.NoError(t, store.MoveToReady(ctx, doc, curation.ArticleData{Title: "t"}, false))

		events := store.Bus.Subscribe(curation.EventPublished)
		require.NoError(t, store.PublishDocument(ctx, doc.ID, true))

		assert.False(t, store.IsDocumentReady(doc.ID))
		published := store.Published()
		require.Len(t, published, 1)
		assert.NotNil(t, published[0].PublishedAt)

		require.Len(t, api.statusCalls, 1)
		assert.Equal(t, "PUBLISHED", api.statusCalls[0].Status)

		select {
		case <-events:
		case <-time.After(time.Second):
			t.Fatal("evento document:published no emitido")
		}
	})
}

func TestStore_ReadyEventEmittedAfterDelay(t *testing.T) {
	store, _, _ := newTestStore(t)
	events := store.Bus.Subscribe(curation.EventReady)

	require.NoError(t, store.MoveToReady(context.Background(), curation.Document{ID: "T-1/25"}, curation.ArticleData{}, false))

	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("evento document:ready no emitido")
	}
}

func TestStore_UndoReadyStripsStageFields(t *testing.T) {
	store, _, _ := newTestStore(t)
	doc := curation.Document{ID: "T-10/25", Title: "Doc"}
	require.NoError(t, store.MoveToReady(context.Background(), doc, curation.ArticleData{Title: "t", Content: "c"}, false))

	store.UndoReady(doc.ID)

	assert.False(t, store.IsDocumentReady(doc.ID))
	approved := store.Approved()
	require.Len(t, approved, 1)
	assert.Nil(t, approved[0].ReadyAt)
	assert.Nil(t, approved[0].ArticleData)
}

func TestStore_UndoRejectionDropsFromRejected(t *testing.T) {
	store, _, _ := newTestStore(t)
	doc := curation.Document{ID: "T-11/25"}
	require.NoError(t, store.RejectDocument(context.Background(), doc, "mala calidad", false))

	store.UndoRejection(doc.ID)
	assert.Equal(t, 0, bucketCount(store, doc.ID))
}

func TestStore_ResetSystemCompletely(t *testing.T) {
	store, _, snaps := newTestStore(t)
	require.NoError(t, store.ApproveDocument(context.Background(), curation.Document{ID: "T-12/25"}, false, nil))

	snaps.put("juridica-auth", []byte(`{}`))
	snaps.put("juridica-preferences", []byte(`{}`))
	snaps.put(curation.DraftKeyPrefix+"x", []byte(`{}`))

	store.ResetSystemCompletely()

	assert.Empty(t, store.Approved())
	assert.Nil(t, snaps.get(curation.SnapshotKey))
	assert.Nil(t, snaps.get("juridica-auth"))
	assert.Nil(t, snaps.get("juridica-preferences"))
	assert.Nil(t, snaps.get(curation.DraftKeyPrefix+"x"))
}
