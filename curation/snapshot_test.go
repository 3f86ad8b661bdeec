package curation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JLinaresBeltran/Juridica-News-sub000/curation"
)

// persistedSnapshot refleja la forma serializada del snapshot para
// inspeccionarla desde las pruebas.
type persistedSnapshot struct {
	Version   int                         `json:"version"`
	Approved  []map[string]json.RawMessage `json:"approved"`
	Rejected  []map[string]json.RawMessage `json:"rejected"`
	Ready     []map[string]json.RawMessage `json:"ready"`
	Published []map[string]json.RawMessage `json:"published"`
	Archived  []map[string]json.RawMessage `json:"archived"`
}

func TestSnapshot_SizeBound(t *testing.T) {
	store, _, snaps := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		doc := curation.Document{
			ID:                 fmt.Sprintf("T-%03d/25", i),
			ResumenIA:          strings.Repeat("resumen ", 200),
			FragmentosAnalisis: []string{strings.Repeat("fragmento ", 100)},
		}
		require.NoError(t, store.ApproveDocument(ctx, doc, false, nil))
	}
	for i := 0; i < 25; i++ {
		doc := curation.Document{ID: fmt.Sprintf("R-%03d/25", i)}
		art := curation.ArticleData{
			Title:   "t",
			Content: strings.Repeat("cuerpo del artículo ", 500),
			Image:   strings.Repeat("A", 10_000),
		}
		require.NoError(t, store.MoveToReady(ctx, doc, art, false))
	}

	raw := snaps.get(curation.SnapshotKey)
	require.NotEmpty(t, raw)

	var snap persistedSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	// cada colección acotada a 20 entradas
	assert.LessOrEqual(t, len(snap.Approved), 20)
	assert.LessOrEqual(t, len(snap.Ready), 20)

	// ningún campo pesado sobrevive a la serialización
	text := string(raw)
	assert.NotContains(t, text, "fragmentosAnalisis")
	assert.NotContains(t, text, "cuerpo del artículo")
	assert.NotContains(t, text, strings.Repeat("A", 10_000))

	for _, doc := range snap.Ready {
		if artRaw, ok := doc["articleData"]; ok {
			var art curation.ArticleData
			require.NoError(t, json.Unmarshal(artRaw, &art))
			assert.Empty(t, art.Content)
			assert.Empty(t, art.Image)
			assert.True(t, art.HasImage)
			assert.LessOrEqual(t, len(art.ContentPreview), 200)
		}
	}
}

func TestSnapshot_LoadRestoresState(t *testing.T) {
	store, _, snaps := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ApproveDocument(ctx, curation.Document{ID: "T-1/25", Title: "uno"}, false, nil))
	require.NoError(t, store.RejectDocument(ctx, curation.Document{ID: "T-2/25"}, "dup", false))

	fresh := curation.NewStore(&fakeAPI{}, snaps, curation.NewBus(), zap.NewNop())
	require.NoError(t, fresh.Load())

	assert.True(t, fresh.IsDocumentApproved("T-1/25"))
	assert.True(t, fresh.IsDocumentRejected("T-2/25"))
}

func TestSnapshot_MigrationDiscardsOversizedOldVersion(t *testing.T) {
	snaps := newMemStore()

	// blob de versión anterior que supera el umbral de 500 KB
	old := map[string]any{
		"version": 1,
		"approved": []map[string]any{{
			"id":        "T-1/20",
			"resumenIA": strings.Repeat("x", 600*1024),
		}},
	}
	raw, err := json.Marshal(old)
	require.NoError(t, err)
	require.Greater(t, len(raw), 500*1024)
	snaps.put(curation.SnapshotKey, raw)

	store := curation.NewStore(&fakeAPI{}, snaps, curation.NewBus(), zap.NewNop())
	require.NoError(t, store.Load())

	// descartado por completo: más seguro perder caché que cargar el blob
	assert.Empty(t, store.Approved())
}

func TestSnapshot_MigrationStripsSmallOldVersion(t *testing.T) {
	snaps := newMemStore()

	old := map[string]any{
		"version": 1,
		"approved": []map[string]any{{
			"id":                 "T-2/20",
			"resumenIA":          strings.Repeat("y", 900),
			"fragmentosAnalisis": []string{"f1", "f2"},
		}},
	}
	raw, err := json.Marshal(old)
	require.NoError(t, err)
	snaps.put(curation.SnapshotKey, raw)

	store := curation.NewStore(&fakeAPI{}, snaps, curation.NewBus(), zap.NewNop())
	require.NoError(t, store.Load())

	approved := store.Approved()
	require.Len(t, approved, 1)
	assert.Equal(t, "T-2/20", approved[0].ID)
	assert.LessOrEqual(t, len(approved[0].ResumenIA), 500)
	assert.Nil(t, approved[0].FragmentosAnalisis)
}

func TestSnapshot_CorruptBlobStartsEmpty(t *testing.T) {
	snaps := newMemStore()
	snaps.put(curation.SnapshotKey, []byte("{no es json"))

	store := curation.NewStore(&fakeAPI{}, snaps, curation.NewBus(), zap.NewNop())
	require.NoError(t, store.Load())
	assert.Empty(t, store.Approved())
}

func TestFileSnapshotStore_Quota(t *testing.T) {
	dir := t.TempDir()
	store, err := curation.NewFileSnapshotStore(dir, 256)
	require.NoError(t, err)

	require.NoError(t, store.Save("a", []byte(strings.Repeat("x", 200))))

	err = store.Save("b", []byte(strings.Repeat("y", 100)))
	assert.ErrorIs(t, err, curation.ErrQuotaExceeded)

	// reescribir la misma clave no cuenta su tamaño anterior
	require.NoError(t, store.Save("a", []byte(strings.Repeat("z", 250))))

	got, err := store.Load("a")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("z", 250), string(got))
}

func TestFileSnapshotStore_DeletePrefix(t *testing.T) {
	dir := t.TempDir()
	store, err := curation.NewFileSnapshotStore(dir, 0)
	require.NoError(t, err)

	require.NoError(t, store.Save(curation.DraftKeyPrefix+"T-1/25", []byte("{}")))
	require.NoError(t, store.Save(curation.DraftKeyPrefix+"T-2/25", []byte("{}")))
	require.NoError(t, store.Save("otro", []byte("{}")))

	require.NoError(t, store.DeletePrefix(curation.DraftKeyPrefix))

	for _, key := range []string{curation.DraftKeyPrefix + "T-1/25", curation.DraftKeyPrefix + "T-2/25"} {
		got, err := store.Load(key)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	got, err := store.Load("otro")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSnapshot_LastSyncSurvivesReload(t *testing.T) {
	store, _, snaps := newTestStore(t)
	require.NoError(t, store.ApproveDocument(context.Background(), curation.Document{ID: "T-3/25"}, false, nil))
	require.NotNil(t, store.LastSync())

	// el snapshot se reescribe en cada mutación; forzamos una más para
	// capturar lastSync ya fijado
	require.NoError(t, store.ApproveDocument(context.Background(), curation.Document{ID: "T-4/25"}, false, nil))

	fresh := curation.NewStore(&fakeAPI{}, snaps, curation.NewBus(), zap.NewNop())
	require.NoError(t, fresh.Load())
	require.NotNil(t, fresh.LastSync())
	assert.WithinDuration(t, time.Now(), *fresh.LastSync(), time.Minute)
}
