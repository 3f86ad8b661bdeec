package curation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JLinaresBeltran/Juridica-News-sub000/curation"
)

func TestFilterEmpty(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want map[string]any
	}{
		{
			name: "drops nil and empty string values",
			in:   map[string]any{"a": "x", "b": nil, "c": ""},
			want: map[string]any{"a": "x"},
		},
		{
			name: "keeps non-string values",
			in:   map[string]any{"n": 0, "b": false, "s": "ok"},
			want: map[string]any{"n": 0, "b": false, "s": "ok"},
		},
		{
			name: "empty input",
			in:   map[string]any{},
			want: map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, curation.FilterEmpty(tt.in))
		})
	}
}

func TestAPIClient_Curate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := curation.NewAPIClient(srv.URL, "secreto")
	doc := curation.Document{
		ID:                "T-123/25",
		NumeroSentencia:   "T-123/25",
		MagistradoPonente: "Jane Doe",
	}

	store := curation.NewStore(client, newMemStore(), curation.NewBus(), zap.NewNop())
	require.NoError(t, store.ApproveDocument(context.Background(), doc, true, nil))

	assert.Equal(t, "/documents/T-123/25/curate", gotPath)
	assert.Equal(t, "secreto", gotKey)
	assert.Equal(t, "approve", gotBody["action"])

	// proyección IA filtrada: solo los campos no vacíos viajan
	aiData, ok := gotBody["aiData"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "T-123/25", aiData["numeroSentencia"])
	assert.Equal(t, "Jane Doe", aiData["magistradoPonente"])
	assert.NotContains(t, aiData, "salaRevision")
	assert.NotContains(t, aiData, "resumenIA")
}

func TestAPIClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := curation.NewAPIClient(srv.URL, "")
	err := client.UpdateStatus(context.Background(), "T-1/25", curation.StatusUpdate{Status: "PUBLISHED"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestAPIClient_ListByStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "READY", r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"T-1/25","title":"uno"},{"id":"T-2/25"}]`))
	}))
	defer srv.Close()

	client := curation.NewAPIClient(srv.URL, "")
	docs, err := client.ListByStatus(context.Background(), "READY")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "T-1/25", docs[0].ID)
	assert.Equal(t, "uno", docs[0].Title)
}
