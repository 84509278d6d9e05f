package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/calorbunga/backend/config"
	"github.com/calorbunga/backend/internal/models"
	"github.com/calorbunga/backend/pkg/logger"
)

// estimatorSystemPrompt is the fixed instruction sent with every request.
// Vegan ingredients are assumed unless the description says otherwise;
// plain water must come back with zeroed macros.
const estimatorSystemPrompt = `Nutrition calculator. Provide estimated cal, p, c, f (in grams) and w (water in ounces) as JSON object. Assume vegan ingredients unless specified. If the user logs water or a beverage, calculate "w" based on the volume mentioned or estimated. If it is JUST water, set cal, p, c, f to 0.`

const (
	estimatorMaxAttempts  = 5
	estimatorInitialDelay = 1000 * time.Millisecond
	estimatorMultiplier   = 2
)

// generateContentRequest is the payload for a Gemini-style generateContent call
type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction content          `json:"systemInstruction"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

// generateContentResponse is the provider envelope; only the first
// candidate's first part is used
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// rawEstimate mirrors the JSON object the model is asked to produce.
// Missing fields default to 0.
type rawEstimate struct {
	Cal float64 `json:"cal"`
	P   float64 `json:"p"`
	C   float64 `json:"c"`
	F   float64 `json:"f"`
	W   float64 `json:"w"`
}

// EstimatorService turns free-text food descriptions into structured
// nutrition estimates via an external generative text service
type EstimatorService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
	sleep  SleepFunc
	log    *logger.Logger
}

// NewEstimatorService creates a new EstimatorService instance
func NewEstimatorService(cfg *config.Config, log *logger.Logger) *EstimatorService {
	return &EstimatorService{
		apiKey: cfg.GeminiAPIKey,
		apiURL: strings.TrimSuffix(cfg.GeminiAPIURL, "/"),
		model:  cfg.GeminiModel,
		client: &http.Client{},
		log:    log,
	}
}

// Estimate requests a nutrition estimate for one food description, retrying
// transient failures with exponential backoff. After the attempt budget is
// exhausted the error wraps ErrEstimationFailed; no partial result is
// returned.
func (s *EstimatorService) Estimate(ctx context.Context, description string) (*models.NutritionEstimate, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: empty description", ErrEstimationFailed)
	}

	var estimate *models.NutritionEstimate
	err := withRetry(ctx, estimatorMaxAttempts, estimatorInitialDelay, estimatorMultiplier, s.sleep, func(ctx context.Context) error {
		result, err := s.requestEstimate(ctx, description)
		if err != nil {
			s.log.Warnw("estimation attempt failed", "description", description, "error", err)
			return err
		}
		estimate = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEstimationFailed, err)
	}
	return estimate, nil
}

// requestEstimate performs a single generateContent call and unwraps the
// provider envelope (first candidate, first content part)
func (s *EstimatorService) requestEstimate(ctx context.Context, description string) (*models.NutritionEstimate, error) {
	payload := generateContentRequest{
		Contents:          []content{{Parts: []part{{Text: description}}}},
		SystemInstruction: content{Parts: []part{{Text: estimatorSystemPrompt}}},
		GenerationConfig:  generationConfig{ResponseMimeType: "application/json"},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.apiURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var envelope generateContentResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates in API response")
	}

	var raw rawEstimate
	if err := json.Unmarshal([]byte(envelope.Candidates[0].Content.Parts[0].Text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse estimate: %w", err)
	}

	return roundEstimate(raw), nil
}

// roundEstimate rounds every field to the nearest integer and clamps
// negatives to zero; estimates are never negative
func roundEstimate(raw rawEstimate) *models.NutritionEstimate {
	round := func(v float64) int {
		if v < 0 {
			return 0
		}
		return int(math.Round(v))
	}
	return &models.NutritionEstimate{
		Calories: round(raw.Cal),
		Protein:  round(raw.P),
		Carbs:    round(raw.C),
		Fat:      round(raw.F),
		Water:    round(raw.W),
	}
}
