package handlers

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/iudanet/gophsync/internal/docstore"
)

func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// newTestMux регистрирует маршруты документов так же, как router
func newTestMux(store docstore.Store) *http.ServeMux {
	h := NewDocumentsHandler(setupTestLogger(), store)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/collections/{collection}/documents", h.List)
	mux.HandleFunc("POST /api/v1/collections/{collection}/documents", h.Create)
	mux.HandleFunc("GET /api/v1/collections/{collection}/documents/{id}", h.Get)
	mux.HandleFunc("PATCH /api/v1/collections/{collection}/documents/{id}", h.Patch)
	mux.HandleFunc("DELETE /api/v1/collections/{collection}/documents/{id}", h.Delete)
	return mux
}
