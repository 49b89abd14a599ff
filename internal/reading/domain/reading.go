// Package reading holds horoscope and palm reading types shared by the
// generation services.
package reading

import (
	"time"

	mahabote "mahabote-web/internal/mahabote/domain"
)

// Language selects the output language of generated readings.
type Language string

const (
	LanguageBurmese Language = "my"
	LanguageThai    Language = "th"
)

// Valid reports whether the language is supported.
func (l Language) Valid() bool {
	return l == LanguageBurmese || l == LanguageThai
}

// Gender is the user-declared gender carried into the prompt.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether the gender value is one of the accepted three.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// UserProfile identifies the person a reading is for.
type UserProfile struct {
	FirstName  string
	MiddleName string
	LastName   string
	Gender     Gender
}

// FullName joins the name parts, skipping an absent middle name.
func (p UserProfile) FullName() string {
	name := p.FirstName
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}

// HoroscopeSections is the structured narrative returned by the model.
// All six fields are required; a reading is never partially populated.
type HoroscopeSections struct {
	Warning     string `json:"warning"`
	Personality string `json:"personality"`
	Career      string `json:"career"`
	Love        string `json:"love"`
	Health      string `json:"health"`
	Advice      string `json:"advice"`
}

// Validate fails with ErrMissingSection when any narrative field is empty.
func (h HoroscopeSections) Validate() error {
	for _, section := range []string{h.Warning, h.Personality, h.Career, h.Love, h.Health, h.Advice} {
		if section == "" {
			return ErrMissingSection
		}
	}
	return nil
}

// Reading is a stored horoscope reading.
type Reading struct {
	ID        string
	Profile   UserProfile
	Lang      Language
	Mahabote  mahabote.Result
	BirthDate time.Time
	Sections  HoroscopeSections
	CreatedAt time.Time
}

// Palm line names recognized by the palm reader.
const (
	LineHeart = "heart"
	LineHead  = "head"
	LineLife  = "life"
	LineFate  = "fate"
)

// PalmPoint is a normalized coordinate on the palm image, (0,0) top-left
// to (1,1) bottom-right.
type PalmPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PalmLine traces one detected palm line.
type PalmLine struct {
	Name   string      `json:"name"`
	Points []PalmPoint `json:"points"`
}

// PalmAnalysis is the narrative for each major line.
type PalmAnalysis struct {
	Heart string `json:"heart"`
	Head  string `json:"head"`
	Life  string `json:"life"`
	Fate  string `json:"fate"`
}

// PalmReading is the full palm result: analysis plus line coordinates.
type PalmReading struct {
	Analysis PalmAnalysis `json:"analysis"`
	Lines    []PalmLine   `json:"lines"`
}

// Validate enforces the all-or-nothing contract: every analysis field
// present, every line named after a known line with in-range coordinates.
func (p PalmReading) Validate() error {
	for _, section := range []string{p.Analysis.Heart, p.Analysis.Head, p.Analysis.Life, p.Analysis.Fate} {
		if section == "" {
			return ErrMissingSection
		}
	}
	for _, line := range p.Lines {
		switch line.Name {
		case LineHeart, LineHead, LineLife, LineFate:
		default:
			return ErrUnknownPalmLine
		}
		if len(line.Points) == 0 {
			return ErrEmptyPalmLine
		}
		for _, pt := range line.Points {
			if pt.X < 0 || pt.X > 1 || pt.Y < 0 || pt.Y > 1 {
				return ErrPointOutOfRange
			}
		}
	}
	return nil
}
