package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smm-studio/internal/infra/metrics"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client выполняет запросы к Generative Language API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient создаёт клиента Gemini.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout + 5*time.Second}
	return &Client{http: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// Part — фрагмент содержимого: текст или вложенные данные.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData передаёт изображение в base64.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content объединяет фрагменты одного сообщения.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig задаёт параметры генерации.
type GenerationConfig struct {
	Temperature      *float64        `json:"temperature,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

// GenerateContentRequest описывает тело запроса generateContent.
type GenerateContentRequest struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerateContentResponse описывает ответ модели.
type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate содержит один вариант ответа.
type Candidate struct {
	Content Content `json:"content"`
}

// UsageMetadata описывает статистику использования токенов.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Text возвращает текст первого кандидата.
func (r GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

// GenerateContent вызывает /models/{model}:generateContent.
func (c *Client) GenerateContent(ctx context.Context, model string, req GenerateContentRequest) (GenerateContentResponse, error) {
	var resp GenerateContentResponse
	start := time.Now()
	err := c.do(ctx, "generate_content", model, fmt.Sprintf("/models/%s:generateContent", model), req, &resp)
	if err != nil {
		return GenerateContentResponse{}, err
	}
	if resp.UsageMetadata != nil {
		metrics.ObserveLLMGeneration(model, time.Since(start), resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount, resp.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}

// PredictParameters задаёт параметры генерации изображений.
type PredictParameters struct {
	SampleCount    int    `json:"sampleCount"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	OutputMimeType string `json:"outputMimeType,omitempty"`
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters PredictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

// ImagePrediction — одно сгенерированное изображение.
type ImagePrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictResponse struct {
	Predictions []ImagePrediction `json:"predictions"`
}

// Predict вызывает /models/{model}:predict для генерации изображений.
func (c *Client) Predict(ctx context.Context, model, prompt string, params PredictParameters) ([]ImagePrediction, error) {
	req := predictRequest{Instances: []predictInstance{{Prompt: prompt}}, Parameters: params}
	var resp predictResponse
	if err := c.do(ctx, "predict", model, fmt.Sprintf("/models/%s:predict", model), req, &resp); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

func (c *Client) do(ctx context.Context, operation, model, path string, reqBody, respBody any) error {
	if c.apiKey == "" {
		return fmt.Errorf("gemini: api key is empty")
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("gemini: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("gemini", operation, model, start, err)
		return fmt.Errorf("gemini: do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("gemini", operation, model, start, err)
		return fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
		var parsed apiErrorResponse
		if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error.Message != "" {
			apiErr.Message = parsed.Error.Message
			apiErr.Status = parsed.Error.Status
		}
		metrics.ObserveNetworkRequest("gemini", operation, model, start, apiErr)
		return apiErr
	}
	if err := json.Unmarshal(data, respBody); err != nil {
		metrics.ObserveNetworkRequest("gemini", operation, model, start, err)
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("gemini", operation, model, start, nil)
	return nil
}

// APIError описывает ошибку API с HTTP статусом.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

// Error реализует error.
func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: %s (status %d)", e.Message, e.StatusCode)
}

// QuotaExhausted сообщает, что исчерпана квота API.
func (e *APIError) QuotaExhausted() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
