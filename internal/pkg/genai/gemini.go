package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "google.golang.org/genai"
)

// GeminiConfig selects the models used for each request shape.
type GeminiConfig struct {
	APIKey         string
	TextModel      string
	ImageModel     string // text-to-image
	ImageEditModel string // image+prompt to image
	Timeout        time.Duration
}

// GeminiGenerator implements Generator with the Gemini API.
type GeminiGenerator struct {
	client *sdk.Client
	cfg    GeminiConfig
}

// NewGeminiGenerator creates the client. It makes no network call.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	client, err := sdk.NewClient(ctx, &sdk.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: sdk.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, cfg: cfg}, nil
}

func (g *GeminiGenerator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.cfg.Timeout)
}

func (g *GeminiGenerator) Text(ctx context.Context, req TextRequest) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	contents := make([]*sdk.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		var role sdk.Role = sdk.RoleUser
		if t.Role == string(sdk.RoleModel) {
			role = sdk.RoleModel
		}
		contents = append(contents, sdk.NewContentFromText(t.Text, role))
	}
	contents = append(contents, sdk.NewContentFromText(req.Prompt, sdk.RoleUser))

	config := &sdk.GenerateContentConfig{Temperature: req.Temperature}
	if req.System != "" {
		config.SystemInstruction = sdk.NewContentFromText(req.System, sdk.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.TextModel, contents, config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (g *GeminiGenerator) Image(ctx context.Context, req ImageRequest) ([]byte, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if len(req.Source) == 0 {
		config := &sdk.GenerateImagesConfig{NumberOfImages: 1, AspectRatio: req.AspectRatio}
		resp, err := g.client.Models.GenerateImages(ctx, g.cfg.ImageModel, req.Prompt, config)
		if err != nil {
			return nil, err
		}
		for _, img := range resp.GeneratedImages {
			if img != nil && img.Image != nil && len(img.Image.ImageBytes) > 0 {
				return img.Image.ImageBytes, nil
			}
		}
		return nil, errors.New("model returned no image")
	}

	parts := []*sdk.Part{
		sdk.NewPartFromBytes(req.Source, req.SourceMIME),
		sdk.NewPartFromText(req.Prompt),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.ImageEditModel,
		[]*sdk.Content{sdk.NewContentFromParts(parts, sdk.RoleUser)},
		&sdk.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}})
	if err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return p.InlineData.Data, nil
			}
		}
	}
	return nil, errors.New("model returned no image")
}
