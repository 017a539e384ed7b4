package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-pro:generateContent" {
			t.Fatalf("неожиданный путь: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Fatalf("ключ не передан")
		}
		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("тело запроса не разобралось: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "промпт" {
			t.Fatalf("потерян промпт: %+v", req.Contents)
		}
		_ = json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "ответ"}}}}},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, time.Second)
	resp, err := client.GenerateContent(context.Background(), "gemini-2.5-pro", GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: "промпт"}}}},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if resp.Text() != "ответ" {
		t.Fatalf("потерян ответ: %q", resp.Text())
	}
}

func TestGenerateContentQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, time.Second)
	_, err := client.GenerateContent(context.Background(), "gemini-2.5-pro", GenerateContentRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ожидали APIError, получили %v", err)
	}
	if !apiErr.QuotaExhausted() {
		t.Fatalf("429 RESOURCE_EXHAUSTED должен считаться квотной ошибкой")
	}
	if apiErr.Message != "quota exceeded" {
		t.Fatalf("потеряно сообщение API: %q", apiErr.Message)
	}
}

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/imagen-4.0-generate-001:predict" {
			t.Fatalf("неожиданный путь: %s", r.URL.Path)
		}
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("тело запроса не разобралось: %v", err)
		}
		if req.Parameters.SampleCount != 4 || req.Parameters.AspectRatio != "1:1" {
			t.Fatalf("потеряны параметры: %+v", req.Parameters)
		}
		_ = json.NewEncoder(w).Encode(predictResponse{
			Predictions: []ImagePrediction{{BytesBase64Encoded: "aGk=", MimeType: "image/png"}},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, time.Second)
	preds, err := client.Predict(context.Background(), "imagen-4.0-generate-001", "закат", PredictParameters{SampleCount: 4, AspectRatio: "1:1", OutputMimeType: "image/png"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(preds) != 1 || preds[0].BytesBase64Encoded != "aGk=" {
		t.Fatalf("потеряны предсказания: %+v", preds)
	}
}

func TestEmptyAPIKey(t *testing.T) {
	client := NewClient("", "http://localhost:0", time.Second)
	if _, err := client.GenerateContent(context.Background(), "m", GenerateContentRequest{}); err == nil {
		t.Fatalf("пустой ключ должен давать ошибку")
	}
}
