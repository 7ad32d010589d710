package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"docqa-backend/models"
)

func TestEnsureCollectionSendsSchema(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/collections/docs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewStore(Config{URL: server.URL, Collection: "docs"})
	if err := s.EnsureCollection(context.Background(), 768); err != nil {
		t.Fatalf("ensure error: %v", err)
	}

	vectors, _ := got["vectors"].(map[string]any)
	if vectors["size"] != float64(768) || vectors["distance"] != "Cosine" {
		t.Errorf("unexpected schema: %+v", vectors)
	}
}

func TestEnsureCollectionSurfacesSchemaConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	s := NewStore(Config{URL: server.URL, Collection: "docs"})
	err := s.EnsureCollection(context.Background(), 768)
	if err == nil {
		t.Fatal("want error on schema conflict")
	}
	if models.KindOf(err) != models.ErrVectorStoreUnavailable {
		t.Errorf("wrong error kind: %v", models.KindOf(err))
	}
}

func TestEnsureCollectionRejectsInvalidDimension(t *testing.T) {
	s := NewStore(Config{URL: "http://localhost:1", Collection: "docs"})
	err := s.EnsureCollection(context.Background(), 0)
	if models.KindOf(err) != models.ErrInvalidConfiguration {
		t.Errorf("wrong error kind: %v", models.KindOf(err))
	}
}
