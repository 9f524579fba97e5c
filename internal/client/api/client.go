package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/pkg/api"
)

// ErrUnauthorized is returned when the server rejects the access token.
var ErrUnauthorized = errors.New("unauthorized")

// Client представляет HTTP клиент документного сервера.
// Реализует docstore.Store, поэтому sync engine может работать через сеть.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

var _ docstore.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// Get получает документ по id
func (c *Client) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.Validate(collection, id); err != nil {
		return docstore.Document{}, err
	}
	var resp api.Document
	if err := c.doRequest(ctx, http.MethodGet, documentPath(collection, id), nil, &resp); err != nil {
		return docstore.Document{}, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return fromWire(resp), nil
}

// List получает все документы коллекции
func (c *Client) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}
	var resp api.ListDocumentsResponse
	if err := c.doRequest(ctx, http.MethodGet, collectionPath(collection), nil, &resp); err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	docs := make([]docstore.Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		docs = append(docs, fromWire(d))
	}
	return docs, nil
}

// Add создает документ, id выдает сервер
func (c *Client) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}
	var resp api.CreateDocumentResponse
	req := api.WriteDocumentRequest{Fields: fields}
	if err := c.doRequest(ctx, http.MethodPost, collectionPath(collection), req, &resp); err != nil {
		return "", fmt.Errorf("add document %s: %w", collection, err)
	}
	return resp.ID, nil
}

// Set выполняет shallow merge полей в документ
func (c *Client) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}
	req := api.WriteDocumentRequest{Fields: fields}
	if err := c.doRequest(ctx, http.MethodPatch, documentPath(collection, id), req, nil); err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete удаляет документ
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}
	if err := c.doRequest(ctx, http.MethodDelete, documentPath(collection, id), nil, nil); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func statusError(code int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
		if errResp.Message != "" {
			message += ": " + errResp.Message
		}
	}

	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", docstore.ErrNotFound, message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	default:
		return fmt.Errorf("server error (%d): %s", code, message)
	}
}

func collectionPath(collection string) string {
	return "/api/v1/collections/" + url.PathEscape(collection) + "/documents"
}

func documentPath(collection, id string) string {
	return collectionPath(collection) + "/" + url.PathEscape(id)
}

func fromWire(d api.Document) docstore.Document {
	return docstore.Document{
		ID:         d.ID,
		Fields:     d.Fields,
		CreateTime: d.CreateTime,
		UpdateTime: d.UpdateTime,
	}
}
