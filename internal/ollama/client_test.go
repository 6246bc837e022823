package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Mock Ollama API responses
type mockEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type mockEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

type mockListResponse struct {
	Models []mockModel `json:"models"`
}

type mockModel struct {
	Name string `json:"name"`
}

func newMockServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/embed":
			var req mockEmbedRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			resp := mockEmbedResponse{Model: req.Model}
			for i := range req.Input {
				resp.Embeddings = append(resp.Embeddings, []float32{float32(i), 0.5, 1})
			}
			json.NewEncoder(w).Encode(resp)
		case "/api/tags":
			json.NewEncoder(w).Encode(mockListResponse{
				Models: []mockModel{{Name: "test-model:latest"}, {Name: "another-model"}},
			})
		case "/":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		model     string
		wantModel string
		wantErr   bool
	}{
		{
			name:      "with custom url and model",
			url:       "http://localhost:11434",
			model:     "custom-model",
			wantModel: "custom-model",
		},
		{
			name:      "with all defaults",
			wantModel: DefaultModel,
		},
		{
			name:    "invalid url",
			url:     "not a url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, tt.model, nil)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if client.Model() != tt.wantModel {
				t.Errorf("expected model %s, got %s", tt.wantModel, client.Model())
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	server := newMockServer(t)

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"available server", server.URL, true},
		{"unavailable server", "http://localhost:99999", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAvailable(context.Background(), tt.url); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestEmbed(t *testing.T) {
	server := newMockServer(t)
	client, err := NewClient(server.URL, "test-model", nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	ctx := context.Background()

	vectors, err := client.Embed(ctx, []string{"first draft", "second draft"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[1][0] != 1 {
		t.Errorf("vectors out of order: %v", vectors)
	}

	if _, err := client.Embed(ctx, []string{"ok", "  "}); err == nil {
		t.Error("expected error for empty text")
	}

	none, err := client.Embed(ctx, nil)
	if err != nil || none != nil {
		t.Errorf("expected nil result for no input, got %v, %v", none, err)
	}
}

func TestCheckModel(t *testing.T) {
	server := newMockServer(t)
	ctx := context.Background()

	tests := []struct {
		model   string
		wantErr bool
	}{
		{"test-model", false},
		{"another-model", false},
		{"nonexistent-model-xyz", true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			client, err := NewClient(server.URL, tt.model, nil)
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}
			err = client.CheckModel(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckModel() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
