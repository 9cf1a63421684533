// services/ai_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"inci.cards/configs"
	"inci.cards/configs/configslog"
	"inci.cards/models"
	"inci.cards/pkg/prompts"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// AIServiceError is a typed service error.
type AIServiceError string

func (e AIServiceError) Error() string { return string(e) }

// ErrAIUnavailable covers every AI failure mode: missing API key, transport
// errors, quota, and unparseable responses. Callers branch on it instead of
// receiving placeholder text that would end up in the permanent record.
const ErrAIUnavailable AIServiceError = "AI обработка недоступна"

// IAIService is the stateless text/image-to-JSON extraction collaborator.
type IAIService interface {
	Enabled() bool
	// AnalyzeProduct runs the full INCI extraction producing the six derived
	// composition fields.
	AnalyzeProduct(ctx context.Context, productName, purpose, inci string, image *models.ImageAttachment) (*models.ProductAnalysis, error)
	// AnalyzeLabel runs the label-only extraction: summary plus suggested
	// purpose and application.
	AnalyzeLabel(ctx context.Context, productName, labelText string, images []models.ImageAttachment) (*models.LabelAnalysis, error)
}

// generateFn produces the raw model response for a prompt with optional
// inline attachments. Swappable in tests.
type generateFn func(ctx context.Context, prompt string, attachments []models.ImageAttachment) (string, error)

// AIService implements IAIService over the Gemini API.
type AIService struct {
	model    string
	generate generateFn
}

// NewAIService builds the Gemini-backed service. Without an API key the
// service stays up but disabled: every analysis returns ErrAIUnavailable.
func NewAIService(ctx context.Context) (IAIService, error) {
	cfg := configs.Get()
	if cfg.GeminiAPIKey == "" {
		configslog.Log.Warn("GEMINI_API_KEY is not set, AI features are disabled")
		return &AIService{model: cfg.GeminiModel}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	svc := &AIService{model: cfg.GeminiModel}
	svc.generate = func(ctx context.Context, prompt string, attachments []models.ImageAttachment) (string, error) {
		parts := []*genai.Part{genai.NewPartFromText(prompt)}
		for _, att := range attachments {
			parts = append(parts, genai.NewPartFromBytes(att.Data, att.MimeType))
		}
		contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

		resp, err := client.Models.GenerateContent(ctx, svc.model, contents, nil)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return svc, nil
}

// Enabled reports whether a Gemini client is configured.
func (s *AIService) Enabled() bool { return s.generate != nil }

// AnalyzeProduct extracts the six composition fields from INCI text and/or an
// attached document image.
func (s *AIService) AnalyzeProduct(ctx context.Context, productName, purpose, inci string, image *models.ImageAttachment) (*models.ProductAnalysis, error) {
	if !s.Enabled() {
		return nil, ErrAIUnavailable
	}

	var attachments []models.ImageAttachment
	if image != nil {
		attachments = append(attachments, *image)
	}

	raw, err := s.generate(ctx, prompts.ProductAnalysis(productName, purpose, inci), attachments)
	if err != nil {
		configslog.Log.Error("product analysis failed", zap.String("product", productName), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	var result models.ProductAnalysis
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &result); err != nil {
		configslog.Log.Error("product analysis returned malformed JSON",
			zap.String("product", productName), zap.Error(err))
		return nil, fmt.Errorf("%w: malformed response", ErrAIUnavailable)
	}
	return &result, nil
}

// AnalyzeLabel summarises the label and suggests purpose/application values.
func (s *AIService) AnalyzeLabel(ctx context.Context, productName, labelText string, images []models.ImageAttachment) (*models.LabelAnalysis, error) {
	if !s.Enabled() {
		return nil, ErrAIUnavailable
	}

	raw, err := s.generate(ctx, prompts.LabelAnalysis(productName, labelText), images)
	if err != nil {
		configslog.Log.Error("label analysis failed", zap.String("product", productName), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	var result models.LabelAnalysis
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &result); err != nil {
		configslog.Log.Error("label analysis returned malformed JSON",
			zap.String("product", productName), zap.Error(err))
		return nil, fmt.Errorf("%w: malformed response", ErrAIUnavailable)
	}
	return &result, nil
}

// StripCodeFences removes the markdown code fences models wrap JSON answers
// in, despite being told not to.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

var _ IAIService = (*AIService)(nil)
