package gemini

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	reading "mahabote-web/internal/reading/domain"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Templates holds the prompt text for each generation mode. Templates are
// written in English and instruct the model which language to answer in.
type Templates struct {
	Horoscope  string `yaml:"horoscope"`
	Palm       string `yaml:"palm"`
	ChatSystem string `yaml:"chat_system"`
}

// Prompts renders the templates with per-reading data.
type Prompts struct {
	horoscope  *template.Template
	palm       *template.Template
	chatSystem *template.Template
}

// LoadPrompts parses the embedded templates. When path is non-empty the
// file there overrides any template it names; missing keys keep their
// embedded defaults.
func LoadPrompts(path string) (*Prompts, error) {
	var tpls Templates
	if err := yaml.Unmarshal(defaultPromptsYAML, &tpls); err != nil {
		return nil, fmt.Errorf("gemini: embedded prompts: %w", err)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("gemini: read prompt overrides: %w", err)
		}
		var overrides Templates
		if err := yaml.Unmarshal(raw, &overrides); err != nil {
			return nil, fmt.Errorf("gemini: parse prompt overrides: %w", err)
		}
		if overrides.Horoscope != "" {
			tpls.Horoscope = overrides.Horoscope
		}
		if overrides.Palm != "" {
			tpls.Palm = overrides.Palm
		}
		if overrides.ChatSystem != "" {
			tpls.ChatSystem = overrides.ChatSystem
		}
	}

	p := &Prompts{}
	var err error
	if p.horoscope, err = template.New("horoscope").Parse(tpls.Horoscope); err != nil {
		return nil, fmt.Errorf("gemini: horoscope template: %w", err)
	}
	if p.palm, err = template.New("palm").Parse(tpls.Palm); err != nil {
		return nil, fmt.Errorf("gemini: palm template: %w", err)
	}
	if p.chatSystem, err = template.New("chat_system").Parse(tpls.ChatSystem); err != nil {
		return nil, fmt.Errorf("gemini: chat template: %w", err)
	}
	return p, nil
}

type promptData struct {
	FullName    string
	Gender      string
	BirthDate   string
	BurmeseYear int
	DayName     string
	Animal      string
	Planet      string
	Language    string
	Warning     string
	Personality string
	Career      string
	Love        string
	Health      string
	Advice      string
}

func languageName(lang reading.Language) string {
	if lang == reading.LanguageThai {
		return "Thai"
	}
	return "Burmese"
}

func readingData(r *reading.Reading) promptData {
	return promptData{
		FullName:    r.Profile.FullName(),
		Gender:      string(r.Profile.Gender),
		BirthDate:   r.BirthDate.Format("2 January 2006"),
		BurmeseYear: r.Mahabote.BurmeseYear,
		DayName:     r.Mahabote.Day.Name.In(string(r.Lang)),
		Animal:      r.Mahabote.Day.Animal.In(string(r.Lang)),
		Planet:      r.Mahabote.Day.Planet.In(string(r.Lang)),
		Language:    languageName(r.Lang),
	}
}

func (p *Prompts) render(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("gemini: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// HoroscopePrompt renders the horoscope request prompt.
func (p *Prompts) HoroscopePrompt(profile reading.UserProfile, burmeseYear int, dayName, animal, planet string, birthDate time.Time, lang reading.Language) (string, error) {
	return p.render(p.horoscope, promptData{
		FullName:    profile.FullName(),
		Gender:      string(profile.Gender),
		BirthDate:   birthDate.Format("2 January 2006"),
		BurmeseYear: burmeseYear,
		DayName:     dayName,
		Animal:      animal,
		Planet:      planet,
		Language:    languageName(lang),
	})
}

// PalmPrompt renders the palm request prompt.
func (p *Prompts) PalmPrompt(lang reading.Language) (string, error) {
	return p.render(p.palm, promptData{Language: languageName(lang)})
}

// ChatInstruction renders the chat system instruction from a stored reading.
func (p *Prompts) ChatInstruction(r *reading.Reading) (string, error) {
	data := readingData(r)
	data.Warning = r.Sections.Warning
	data.Personality = r.Sections.Personality
	data.Career = r.Sections.Career
	data.Love = r.Sections.Love
	data.Health = r.Sections.Health
	data.Advice = r.Sections.Advice
	return p.render(p.chatSystem, data)
}
