package api

import "time"

// Document представляет документ удаленного хранилища на проводе
type Document struct {
	CreateTime time.Time      `json:"create_time"` // время создания на сервере
	UpdateTime time.Time      `json:"update_time"` // время последней записи на сервере
	Fields     map[string]any `json:"fields"`      // поля документа
	ID         string         `json:"id"`          // идентификатор документа
}

// ListDocumentsResponse представляет ответ со списком документов коллекции
type ListDocumentsResponse struct {
	Documents []Document `json:"documents"`
}

// WriteDocumentRequest представляет тело POST (создание) и PATCH (shallow merge)
type WriteDocumentRequest struct {
	Fields map[string]any `json:"fields"`
}

// CreateDocumentResponse представляет ответ на создание документа
type CreateDocumentResponse struct {
	ID string `json:"id"` // идентификатор, выданный сервером
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`  // "ok"
	Version string `json:"version"` // версия сервера
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
