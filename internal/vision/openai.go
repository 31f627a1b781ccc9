package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const detectPrompt = `Detect the objects in this image. Respond with a JSON array only, ` +
	`one element per detected object: [{"label": "<coco label>", "confidence": <0..1>}]. ` +
	`Use COCO label names such as "person", "bottle", "cup", "wine glass", "vase". ` +
	`Respond with [] if nothing is detected.`

// OpenAIDetector detects objects by calling an OpenAI-compatible vision
// model. The client is created once and reused across images.
type OpenAIDetector struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// OpenAIConfig holds the configuration for the vision detector.
type OpenAIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// NewOpenAIDetector creates a detector backed by an OpenAI-compatible API.
func NewOpenAIDetector(cfg OpenAIConfig) *OpenAIDetector {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIDetector{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		timeout: timeout,
	}
}

// Detect sends the image inline as base64 and parses the model's JSON reply.
func (d *OpenAIDetector) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: detectPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("vision completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return parseDetections(resp.Choices[0].Message.Content)
}

// parseDetections extracts the detection array from a model reply,
// tolerating markdown code fences around the JSON.
func parseDetections(content string) ([]Detection, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var detections []Detection
	if err := json.Unmarshal([]byte(content), &detections); err != nil {
		return nil, fmt.Errorf("parse detections: %w", err)
	}

	for i, det := range detections {
		if det.Confidence < 0 || det.Confidence > 1 {
			return nil, fmt.Errorf("detection %d: confidence %v out of range", i, det.Confidence)
		}
	}

	return detections, nil
}
