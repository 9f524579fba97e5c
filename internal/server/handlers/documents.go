package handlers

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/blake2b"

	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/pkg/api"
)

// maxBodyBytes ограничение размера тела запроса на запись
const maxBodyBytes = 1 << 20

// DocumentsHandler exposes a docstore.Store over HTTP.
type DocumentsHandler struct {
	logger *slog.Logger
	store  docstore.Store
}

// NewDocumentsHandler creates a handler backed by store.
func NewDocumentsHandler(logger *slog.Logger, store docstore.Store) *DocumentsHandler {
	return &DocumentsHandler{
		logger: logger,
		store:  store,
	}
}

// List обрабатывает GET /api/v1/collections/{collection}/documents
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	docs, err := h.store.List(r.Context(), collection)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	resp := api.ListDocumentsResponse{Documents: make([]api.Document, 0, len(docs))}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, toWire(doc))
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Create обрабатывает POST /api/v1/collections/{collection}/documents
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	req, ok := h.decodeWrite(w, r)
	if !ok {
		return
	}

	id, err := h.store.Add(r.Context(), collection, req.Fields)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	h.logger.Debug("document created", "collection", collection, "id", id)
	sendJSON(h.logger, w, api.CreateDocumentResponse{ID: id}, http.StatusCreated)
}

// Get обрабатывает GET /api/v1/collections/{collection}/documents/{id}.
// The response carries an ETag; a matching If-None-Match yields 304.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")

	doc, err := h.store.Get(r.Context(), collection, id)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	body, err := json.Marshal(toWire(doc))
	if err != nil {
		h.logger.Error("failed to encode document", slog.Any("error", err))
		sendError(h.logger, w, "failed to encode document", http.StatusInternalServerError)
		return
	}

	etag := ETag(body)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write response", slog.Any("error", err))
	}
}

// Patch обрабатывает PATCH /api/v1/collections/{collection}/documents/{id}
// с семантикой shallow merge
func (h *DocumentsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")

	req, ok := h.decodeWrite(w, r)
	if !ok {
		return
	}

	if err := h.store.Set(r.Context(), collection, id, req.Fields); err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete обрабатывает DELETE /api/v1/collections/{collection}/documents/{id}.
// Повторное удаление тоже возвращает 204.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")

	if err := h.store.Delete(r.Context(), collection, id); err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ETag returns a strong entity tag for body: quoted hex BLAKE2b-256.
func ETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func (h *DocumentsHandler) decodeWrite(w http.ResponseWriter, r *http.Request) (api.WriteDocumentRequest, bool) {
	var req api.WriteDocumentRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request", "error", err)
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.Fields == nil {
		sendError(h.logger, w, "fields are required", http.StatusBadRequest)
		return req, false
	}

	return req, true
}

func (h *DocumentsHandler) sendStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		sendError(h.logger, w, "document not found", http.StatusNotFound)
	case errors.Is(err, docstore.ErrInvalidCollection), errors.Is(err, docstore.ErrInvalidID):
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("document store failure",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		sendError(h.logger, w, "storage error", http.StatusInternalServerError)
	}
}

func toWire(doc docstore.Document) api.Document {
	fields := doc.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return api.Document{
		ID:         doc.ID,
		Fields:     fields,
		CreateTime: doc.CreateTime,
		UpdateTime: doc.UpdateTime,
	}
}
