package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/internal/docstore/memory"
	"github.com/iudanet/gophsync/pkg/api"
)

func doRequest(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDocumentsHandler_Lifecycle(t *testing.T) {
	store := memory.New()
	mux := newTestMux(store)

	// создание
	w := doRequest(t, mux, http.MethodPost, "/api/v1/collections/clients/documents",
		`{"fields":{"last_name":"ACME","email":"a@acme.test"}}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created api.CreateDocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	docPath := "/api/v1/collections/clients/documents/" + created.ID

	// shallow merge
	w = doRequest(t, mux, http.MethodPatch, docPath, `{"fields":{"email":"b@acme.test"}}`, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// чтение
	w = doRequest(t, mux, http.MethodGet, docPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.Equal(t, ETag(w.Body.Bytes()), etag)

	var doc api.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, created.ID, doc.ID)
	assert.Equal(t, "ACME", doc.Fields["last_name"])
	assert.Equal(t, "b@acme.test", doc.Fields["email"])

	// условный запрос
	w = doRequest(t, mux, http.MethodGet, docPath, "", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)

	// список
	w = doRequest(t, mux, http.MethodGet, "/api/v1/collections/clients/documents", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list api.ListDocumentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Documents, 1)

	// идемпотентное удаление
	for range 2 {
		w = doRequest(t, mux, http.MethodDelete, docPath, "", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	w = doRequest(t, mux, http.MethodGet, docPath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentsHandler_PatchCreatesMissing(t *testing.T) {
	store := memory.New()
	mux := newTestMux(store)

	w := doRequest(t, mux, http.MethodPatch, "/api/v1/collections/missions/documents/m-1", `{"fields":{"title":"DPE"}}`, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	doc, err := store.Get(context.Background(), "missions", "m-1")
	require.NoError(t, err)
	assert.Equal(t, "DPE", doc.Fields["title"])
}

func TestDocumentsHandler_BadRequests(t *testing.T) {
	mux := newTestMux(memory.New())

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "invalid json", method: http.MethodPost, target: "/api/v1/collections/clients/documents", body: `{`, want: http.StatusBadRequest},
		{name: "missing fields", method: http.MethodPost, target: "/api/v1/collections/clients/documents", body: `{}`, want: http.StatusBadRequest},
		{name: "patch without fields", method: http.MethodPatch, target: "/api/v1/collections/clients/documents/c1", body: `{"x":1}`, want: http.StatusBadRequest},
		{name: "method not allowed", method: http.MethodPut, target: "/api/v1/collections/clients/documents/c1", body: `{}`, want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, mux, tt.method, tt.target, tt.body, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestDocumentsHandler_StoreErrors(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want int
	}{
		{name: "not found", err: docstore.ErrNotFound, want: http.StatusNotFound},
		{name: "invalid collection", err: docstore.ErrInvalidCollection, want: http.StatusBadRequest},
		{name: "backend failure", err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &docstore.StoreMock{
				ListFunc: func(ctx context.Context, collection string) ([]docstore.Document, error) {
					return nil, tt.err
				},
			}
			w := doRequest(t, newTestMux(store), http.MethodGet, "/api/v1/collections/clients/documents", "", nil)
			assert.Equal(t, tt.want, w.Code)

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, http.StatusText(tt.want), resp.Error)
			assert.Len(t, store.ListCalls(), 1)
		})
	}
}

func TestETag_Stable(t *testing.T) {
	a := ETag([]byte(`{"a":1}`))
	assert.Equal(t, a, ETag([]byte(`{"a":1}`)))
	assert.NotEqual(t, a, ETag([]byte(`{"a":2}`)))
	assert.True(t, strings.HasPrefix(a, `"`) && strings.HasSuffix(a, `"`))
	assert.Len(t, a, 66)
}
