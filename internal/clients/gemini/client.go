package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/courseforge-backend/internal/logger"
)

// ImageGeneration is the result of one thumbnail render.
type ImageGeneration struct {
	// Base64PNG is the raw base64-encoded PNG, no data: prefix.
	Base64PNG     string
	RevisedPrompt string
}

// Client wraps the Google generative APIs used for course thumbnails:
// a fast text model refines the course topic into an image prompt, then
// the imagen model renders it.
//
// Every method performs a single attempt and surfaces HTTP failures as
// status-coded errors; retry policy belongs to the caller.
type Client interface {
	GenerateImage(ctx context.Context, prompt, description string) (ImageGeneration, error)
}

const promptRefinementSystem = `You are an expert at creating image generation prompts for educational course thumbnails.
Given a course topic (and optional description), write a detailed prompt that depicts the subject matter clearly and attractively.
Use a cinematic photorealistic or modern 3D illustration style, center the subject on a clean background, use professional lighting.
Do not include any text, words, or letters in the image.
Output ONLY the refined prompt, nothing else.`

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	textModel  string
	imageModel string
	aspect     string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	textModel := strings.TrimSpace(os.Getenv("GEMINI_TEXT_MODEL"))
	if textModel == "" {
		textModel = "gemini-2.0-flash-lite"
	}

	imageModel := strings.TrimSpace(os.Getenv("GEMINI_IMAGE_MODEL"))
	if imageModel == "" {
		imageModel = "imagen-4.0-fast-generate-001"
	}

	aspect := strings.TrimSpace(os.Getenv("GEMINI_IMAGE_ASPECT"))
	if aspect == "" {
		aspect = "1:1"
	}

	timeoutSec := 60
	if v := os.Getenv("GEMINI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:        log.With("service", "GeminiClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		textModel:  textModel,
		imageModel: imageModel,
		aspect:     aspect,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (e *geminiHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, path string, body any, dest any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	url := fmt.Sprintf("%s%s?key=%s", c.baseURL, path, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("decode gemini response: %w", err)
		}
	}
	return nil
}

type generateContentRequest struct {
	SystemInstruction content   `json:"system_instruction"`
	Contents          []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *client) refinePrompt(ctx context.Context, prompt, description string) (string, error) {
	input := fmt.Sprintf("Course topic: %s", prompt)
	if description != "" {
		input += fmt.Sprintf("\nDescription: %s", description)
	}
	input += "\n\nCreate an image generation prompt for this course thumbnail."

	var resp generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.textModel)
	err := c.doOnce(ctx, path, generateContentRequest{
		SystemInstruction: content{Parts: []part{{Text: promptRefinementSystem}}},
		Contents:          []content{{Parts: []part{{Text: input}}}},
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no refinement candidates")
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParams     `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParams struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
	} `json:"predictions"`
}

func (c *client) GenerateImage(ctx context.Context, prompt, description string) (ImageGeneration, error) {
	refined, err := c.refinePrompt(ctx, prompt, description)
	if err != nil {
		return ImageGeneration{}, fmt.Errorf("refine image prompt: %w", err)
	}
	if refined == "" {
		refined = prompt
	}

	var resp predictResponse
	path := fmt.Sprintf("/v1beta/models/%s:predict", c.imageModel)
	err = c.doOnce(ctx, path, predictRequest{
		Instances:  []predictInstance{{Prompt: refined}},
		Parameters: predictParams{SampleCount: 1, AspectRatio: c.aspect},
	}, &resp)
	if err != nil {
		return ImageGeneration{}, err
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return ImageGeneration{}, fmt.Errorf("gemini returned no image")
	}

	return ImageGeneration{
		Base64PNG:     resp.Predictions[0].BytesBase64Encoded,
		RevisedPrompt: refined,
	}, nil
}
