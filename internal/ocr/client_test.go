package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuido-app/care-assistant/internal/records"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_ExtractText(t *testing.T) {
	var got extractRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/extract", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(extractResponse{Text: "Glucosa: 98 mg/dl"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := client.ExtractText(context.Background(), records.Document{
		ID:          1,
		StoragePath: "documentos/3/analisis.pdf",
		MimeType:    "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Glucosa: 98 mg/dl", text)
	assert.Equal(t, "documentos/3/analisis.pdf", got.StoragePath)
	assert.Equal(t, "application/pdf", got.MimeType)
	assert.Equal(t, "spa", got.Language)
}

func TestClient_ExtractText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "tesseract crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.ExtractText(context.Background(), records.Document{
		ID: 1, StoragePath: "documentos/3/analisis.pdf",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract crashed")
}

func TestClient_ExtractText_ApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(extractResponse{Error: "unsupported mime type"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.ExtractText(context.Background(), records.Document{
		ID: 1, StoragePath: "documentos/3/foto.heic",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mime type")
}

func TestClient_ExtractText_MissingStoragePath(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://localhost:9999"})
	require.NoError(t, err)

	_, err = client.ExtractText(context.Background(), records.Document{ID: 5})
	assert.Error(t, err)
}
