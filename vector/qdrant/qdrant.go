package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/vector"
)

const scrollPageSize = 100

// Store is a minimal REST client to Qdrant implementing vector.Store.
// Each namespace maps to its own collection; cosine distance is assumed.
type Store struct {
	url       string
	apiKey    string
	prefix    string
	dimension int
	client    *http.Client
}

var _ vector.Store = (*Store)(nil)

// Config holds connection details for a Qdrant server.
type Config struct {
	URL       string
	APIKey    string
	Prefix    string // collection name prefix, prepended to namespaces
	Dimension int
	Timeout   time.Duration
}

// NewStore creates a Qdrant-backed store.
func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:       cfg.URL,
		apiKey:    cfg.APIKey,
		prefix:    cfg.Prefix,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
	}
}

func (s *Store) collection(namespace string) string {
	if s.prefix == "" {
		return namespace
	}
	return s.prefix + "-" + namespace
}

// EnsureNamespace creates the backing collection if it does not exist.
// Qdrant returns 200 for an existing collection with the same schema.
func (s *Store) EnsureNamespace(ctx context.Context, namespace string) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection(namespace)), body, nil)
}

// Upsert inserts or overwrites records in a namespace.
func (s *Store) Upsert(ctx context.Context, namespace string, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, record := range records {
		points[i] = map[string]any{
			"id":      uint64(record.Id),
			"vector":  record.Values,
			"payload": payloadFrom(record.Metadata),
		}
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection(namespace))
	return s.putJSON(ctx, url, body, nil)
}

// Query returns the topK nearest records in a namespace.
func (s *Store) Query(ctx context.Context, namespace string, values []float32, topK int) ([]vector.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       values,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Id      uint64         `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection(namespace))
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}

	matches := make([]vector.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, vector.Match{
			Id:       core.ID(r.Id),
			Score:    r.Score,
			Metadata: metadataFrom(r.Payload),
		})
	}
	return matches, nil
}

// Delete removes records by ID.
func (s *Store) Delete(ctx context.Context, namespace string, ids []core.ID) error {
	if len(ids) == 0 {
		return nil
	}
	points := make([]uint64, len(ids))
	for i, id := range ids {
		points[i] = uint64(id)
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection(namespace))
	return s.postJSON(ctx, url, body, nil)
}

// ListAll pages through every record via the scroll API.
func (s *Store) ListAll(ctx context.Context, namespace string, fn func(batch []vector.Record) error) error {
	url := fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection(namespace))

	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  true,
		}
		if offset != nil {
			req["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Id      uint64         `json:"id"`
					Vector  []float32      `json:"vector"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.postJSON(ctx, url, req, &resp); err != nil {
			return err
		}
		if len(resp.Result.Points) == 0 {
			return nil
		}

		batch := make([]vector.Record, len(resp.Result.Points))
		for i, p := range resp.Result.Points {
			batch[i] = vector.Record{
				Id:       core.ID(p.Id),
				Values:   p.Vector,
				Metadata: metadataFrom(p.Payload),
			}
		}
		if err := fn(batch); err != nil {
			return err
		}

		if resp.Result.NextPageOffset == nil {
			return nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func payloadFrom(m vector.Metadata) map[string]any {
	return map[string]any{
		"dataset":      m.Dataset,
		"url":          m.URL,
		"title":        m.Title,
		"text":         m.Text,
		"document_id":  fmt.Sprintf("%d", m.DocumentId),
		"ordinal":      m.Ordinal,
		"content_hash": m.ContentHash,
	}
}

func metadataFrom(payload map[string]any) vector.Metadata {
	var m vector.Metadata
	if v, ok := payload["dataset"].(string); ok {
		m.Dataset = v
	}
	if v, ok := payload["url"].(string); ok {
		m.URL = v
	}
	if v, ok := payload["title"].(string); ok {
		m.Title = v
	}
	if v, ok := payload["text"].(string); ok {
		m.Text = v
	}
	if v, ok := payload["document_id"].(string); ok {
		var id uint64
		fmt.Sscanf(v, "%d", &id)
		m.DocumentId = core.ID(id)
	}
	if v, ok := payload["ordinal"].(float64); ok {
		m.Ordinal = int(v)
	}
	if v, ok := payload["content_hash"].(string); ok {
		m.ContentHash = v
	}
	return m
}

func (s *Store) putJSON(ctx context.Context, url string, body, out any) error {
	return s.doJSON(ctx, http.MethodPut, url, body, out)
}

func (s *Store) postJSON(ctx context.Context, url string, body, out any) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
