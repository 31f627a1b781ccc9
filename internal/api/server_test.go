package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medwatch/telegram-warehouse/internal/repository"
)

// Mock implementations for testing

type mockReportsRepo struct {
	products []repository.ProductMention
	activity map[string][]repository.ChannelActivity
	messages []repository.MessageResult
	stats    []repository.VisualStat
	err      error
}

func (m *mockReportsRepo) TopProducts(ctx context.Context, limit int) ([]repository.ProductMention, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.products) {
		return m.products[:limit], nil
	}
	return m.products, nil
}

func (m *mockReportsRepo) GetChannelActivity(ctx context.Context, channel string) ([]repository.ChannelActivity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.activity[channel], nil
}

func (m *mockReportsRepo) SearchMessages(ctx context.Context, keyword string, limit int) ([]repository.MessageResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.messages, nil
}

func (m *mockReportsRepo) GetVisualStats(ctx context.Context) ([]repository.VisualStat, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func newTestServer(repo ReportsRepository) *Server {
	cfg := &Config{
		Port:        8000,
		Title:       "Test API",
		Description: "Test",
		Version:     "1.0.0",
	}
	return NewServer(cfg, &Dependencies{ReportsRepo: repo})
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(&mockReportsRepo{})
	if srv == nil {
		t.Fatal("expected server to be created")
	}
	if srv.fuego == nil {
		t.Fatal("expected fuego server to be initialized")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&mockReportsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp.Status)
	}
}

func TestTopProductsEndpoint(t *testing.T) {
	srv := newTestServer(&mockReportsRepo{
		products: []repository.ProductMention{
			{ProductName: "paracetamol 500mg", MentionCount: 42},
			{ProductName: "amoxicillin", MentionCount: 17},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/top-products", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp TopProductsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
	if resp.Products[0].ProductName != "paracetamol 500mg" {
		t.Errorf("unexpected first product: %s", resp.Products[0].ProductName)
	}
}

func TestTopProductsEndpoint_Limit(t *testing.T) {
	srv := newTestServer(&mockReportsRepo{
		products: []repository.ProductMention{
			{ProductName: "a", MentionCount: 3},
			{ProductName: "b", MentionCount: 2},
			{ProductName: "c", MentionCount: 1},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/top-products?limit=2", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp TopProductsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
}

func TestChannelActivityEndpoint(t *testing.T) {
	day := time.Date(2026, 1, 18, 0, 0, 0, 0, time.UTC)
	srv := newTestServer(&mockReportsRepo{
		activity: map[string][]repository.ChannelActivity{
			"cheMed123": {
				{Date: day, MessageCount: 12},
				{Date: day.AddDate(0, 0, 1), MessageCount: 7},
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/cheMed123/activity", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ChannelActivityResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Channel != "cheMed123" {
		t.Errorf("expected channel cheMed123, got %s", resp.Channel)
	}
	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
}

func TestChannelActivityEndpoint_NotFound(t *testing.T) {
	srv := newTestServer(&mockReportsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/nosuchchannel/activity", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSearchMessagesEndpoint(t *testing.T) {
	text := "new stock of paracetamol"
	srv := newTestServer(&mockReportsRepo{
		messages: []repository.MessageResult{
			{MessageID: 100, ChannelName: "cheMed123", MessageText: &text},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/messages?q=paracetamol", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SearchMessagesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Query != "paracetamol" {
		t.Errorf("expected query echoed back, got %s", resp.Query)
	}
	if resp.Total != 1 {
		t.Errorf("expected total 1, got %d", resp.Total)
	}
	if resp.Messages[0].MessageID != 100 {
		t.Errorf("expected message_id 100, got %d", resp.Messages[0].MessageID)
	}
}

func TestSearchMessagesEndpoint_MissingQuery(t *testing.T) {
	srv := newTestServer(&mockReportsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/messages", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVisualContentEndpoint(t *testing.T) {
	srv := newTestServer(&mockReportsRepo{
		stats: []repository.VisualStat{
			{ImageCategory: "promotional", TotalCount: 30, AvgConfidence: 0.8812},
			{ImageCategory: "other", TotalCount: 5, AvgConfidence: 0.4401},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/visual-content", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp VisualContentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
	if resp.Categories[0].AvgConfidence != 0.8812 {
		t.Errorf("unexpected avg confidence: %v", resp.Categories[0].AvgConfidence)
	}
}

func TestRepoErrorReturns500(t *testing.T) {
	srv := newTestServer(&mockReportsRepo{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/visual-content", nil)
	w := httptest.NewRecorder()

	srv.fuego.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d: %s", w.Code, w.Body.String())
	}
}
