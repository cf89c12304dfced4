package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrUnsupportedBackend is returned for an unknown image backend name.
var ErrUnsupportedBackend = errors.New("image backend not supported")

const (
	BackendOpenAI    = "openai"
	BackendStability = "stability"

	defaultStabilityURL = "https://api.stability.ai/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image"
)

// ImageGenerator turns a text prompt into a persisted picture.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (Image, error)
}

// ImageSettings selects and configures one image backend.
type ImageSettings struct {
	Backend string
	APIKey  string
	BaseURL string
}

// NewImageGenerator picks the backend once, at configuration time. The OpenAI backend
// reuses the agent to turn the blog title into a DALL-E prompt.
func NewImageGenerator(cfg ImageSettings, agent *Agent, httpClient *http.Client) (ImageGenerator, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	switch cfg.Backend {
	case BackendOpenAI, "":
		if agent == nil {
			return nil, errors.New("openai image backend needs an agent")
		}
		if cfg.APIKey == "" {
			return nil, errors.New("openai image backend: api key missing")
		}
		return &OpenAIImage{
			agent:  agent,
			client: httpClient,
			opts:   clientOptions(cfg.APIKey, cfg.BaseURL, httpClient),
		}, nil
	case BackendStability:
		if cfg.APIKey == "" {
			return nil, errors.New("stability image backend: api key missing; provide image.api_key or STABILITY_API_KEY")
		}
		endpoint := cfg.BaseURL
		if endpoint == "" {
			endpoint = defaultStabilityURL
		}
		return &StabilityImage{apiKey: cfg.APIKey, endpoint: endpoint, client: httpClient}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}

// OpenAIImage asks the text model for an image prompt, then renders it with DALL-E 3.
type OpenAIImage struct {
	agent  *Agent
	client *http.Client
	opts   []option.RequestOption
}

func (g *OpenAIImage) Generate(ctx context.Context, title string) (Image, error) {
	imgPrompt, err := g.agent.GenerateLine(ctx, ImagePrompt(title))
	if err != nil {
		return Image{}, err
	}

	client := openai.NewClient(g.opts...)
	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         imgPrompt,
		Model:          openai.ImageModelDallE3,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
		Style:          openai.ImageGenerateParamsStyleVivid,
	})
	if err != nil {
		return Image{}, fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return Image{}, errors.New("openai image: empty data")
	}

	data, err := download(ctx, g.client, resp.Data[0].URL)
	if err != nil {
		return Image{}, err
	}
	return writeTempImage(data)
}

// StabilityImage calls the Stability SDXL text-to-image endpoint with the prompt as is.
type StabilityImage struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

type stabilityPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityRequest struct {
	Steps       int               `json:"steps"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Seed        int               `json:"seed"`
	CfgScale    int               `json:"cfg_scale"`
	Samples     int               `json:"samples"`
	TextPrompts []stabilityPrompt `json:"text_prompts"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64 string `json:"base64"`
	} `json:"artifacts"`
}

func (g *StabilityImage) Generate(ctx context.Context, prompt string) (Image, error) {
	payload := stabilityRequest{
		Steps:    40,
		Width:    1024,
		Height:   1024,
		Seed:     0,
		CfgScale: 5,
		Samples:  1,
		TextPrompts: []stabilityPrompt{
			{Text: prompt, Weight: 1},
			{Text: "blurry, bad", Weight: -1},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Image{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.endpoint, bytes.NewReader(body))
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return Image{}, fmt.Errorf("stability: non-200 response %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var data stabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Image{}, err
	}
	if len(data.Artifacts) == 0 {
		return Image{}, errors.New("stability: no artifacts")
	}
	raw, err := base64.StdEncoding.DecodeString(data.Artifacts[0].Base64)
	if err != nil {
		return Image{}, fmt.Errorf("stability: decode artifact: %w", err)
	}
	return writeTempImage(raw)
}

func download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func writeTempImage(data []byte) (Image, error) {
	f, err := os.CreateTemp("", "blog-image-*.png")
	if err != nil {
		return Image{}, err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return Image{}, err
	}
	return Image{Data: data, Path: f.Name()}, nil
}
