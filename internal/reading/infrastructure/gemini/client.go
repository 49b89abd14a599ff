// Package gemini implements the generation backend on the Google GenAI
// SDK. All responses are requested as JSON constrained by a response
// schema so the application layer can rely on the shape.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"

	mahabote "mahabote-web/internal/mahabote/domain"
	reading "mahabote-web/internal/reading/domain"
)

const defaultModel = "gemini-2.0-flash"

// Client calls the Gemini API for horoscope, palm and chat generation.
type Client struct {
	client  *genai.Client
	model   string
	prompts *Prompts
	logger  *log.Logger
}

// NewClient builds a generation client. model falls back to a sensible
// default when empty.
func NewClient(ctx context.Context, apiKey, model string, prompts *Prompts, logger *log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if prompts == nil {
		return nil, errors.New("gemini: prompts are required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model, prompts: prompts, logger: logger}, nil
}

func horoscopeSchema() *genai.Schema {
	section := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"warning":     section,
			"personality": section,
			"career":      section,
			"love":        section,
			"health":      section,
			"advice":      section,
		},
		Required: []string{"warning", "personality", "career", "love", "health", "advice"},
	}
}

func palmSchema() *genai.Schema {
	narrative := &genai.Schema{Type: genai.TypeString}
	point := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"x": {Type: genai.TypeNumber},
			"y": {Type: genai.TypeNumber},
		},
		Required: []string{"x", "y"},
	}
	line := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name": {
				Type: genai.TypeString,
				Enum: []string{reading.LineHeart, reading.LineHead, reading.LineLife, reading.LineFate},
			},
			"points": {Type: genai.TypeArray, Items: point},
		},
		Required: []string{"name", "points"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"analysis": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"heart": narrative,
					"head":  narrative,
					"life":  narrative,
					"fate":  narrative,
				},
				Required: []string{"heart", "head", "life", "fate"},
			},
			"lines": {Type: genai.TypeArray, Items: line},
		},
		Required: []string{"analysis", "lines"},
	}
}

// Horoscope generates the six narrative sections for a Mahabote result.
func (c *Client) Horoscope(ctx context.Context, profile reading.UserProfile, result mahabote.Result, birthDate time.Time, lang reading.Language) (reading.HoroscopeSections, error) {
	prompt, err := c.prompts.HoroscopePrompt(profile, result.BurmeseYear,
		result.Day.Name.In(string(lang)), result.Day.Animal.In(string(lang)),
		result.Day.Planet.In(string(lang)), birthDate, lang)
	if err != nil {
		return reading.HoroscopeSections{}, err
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   horoscopeSchema(),
		})
	if err != nil {
		return reading.HoroscopeSections{}, fmt.Errorf("gemini: horoscope: %w", err)
	}

	var sections reading.HoroscopeSections
	if err := json.Unmarshal([]byte(resp.Text()), &sections); err != nil {
		c.logf("horoscope response was not valid JSON: %v", err)
		return reading.HoroscopeSections{}, fmt.Errorf("gemini: horoscope response: %w", err)
	}
	return sections, nil
}

// Palm generates a palm reading from an image.
func (c *Client) Palm(ctx context.Context, image []byte, contentType string, lang reading.Language) (reading.PalmReading, error) {
	prompt, err := c.prompts.PalmPrompt(lang)
	if err != nil {
		return reading.PalmReading{}, err
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, contentType),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   palmSchema(),
		})
	if err != nil {
		return reading.PalmReading{}, fmt.Errorf("gemini: palm: %w", err)
	}

	var palm reading.PalmReading
	if err := json.Unmarshal([]byte(resp.Text()), &palm); err != nil {
		c.logf("palm response was not valid JSON: %v", err)
		return reading.PalmReading{}, fmt.Errorf("gemini: palm response: %w", err)
	}
	return palm, nil
}

// Chat answers a follow-up question with the stored reading as system
// instruction.
func (c *Client) Chat(ctx context.Context, r *reading.Reading, question string) (string, error) {
	if r == nil {
		return "", reading.ErrNilReading
	}
	instruction, err := c.prompts.ChatInstruction(r)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(question, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		})
	if err != nil {
		return "", fmt.Errorf("gemini: chat: %w", err)
	}
	answer := resp.Text()
	if answer == "" {
		return "", errors.New("gemini: empty chat answer")
	}
	return answer, nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
