package application

import (
	"context"
	"errors"
	"testing"
	"time"

	mahabote "mahabote-web/internal/mahabote/domain"
	reading "mahabote-web/internal/reading/domain"
	"mahabote-web/internal/reading/infrastructure/memory"
)

type stubGenerator struct {
	sections reading.HoroscopeSections
	palm     reading.PalmReading
	answer   string
	err      error

	lastQuestion string
	lastReading  *reading.Reading
}

func (g *stubGenerator) Horoscope(_ context.Context, _ reading.UserProfile, _ mahabote.Result, _ time.Time, _ reading.Language) (reading.HoroscopeSections, error) {
	return g.sections, g.err
}

func (g *stubGenerator) Palm(_ context.Context, _ []byte, _ string, _ reading.Language) (reading.PalmReading, error) {
	return g.palm, g.err
}

func (g *stubGenerator) Chat(_ context.Context, r *reading.Reading, question string) (string, error) {
	g.lastReading = r
	g.lastQuestion = question
	return g.answer, g.err
}

func fullSections() reading.HoroscopeSections {
	return reading.HoroscopeSections{
		Warning:     "w",
		Personality: "p",
		Career:      "c",
		Love:        "l",
		Health:      "h",
		Advice:      "a",
	}
}

func horoscopeRequest() HoroscopeRequest {
	return HoroscopeRequest{
		Profile:   reading.UserProfile{FirstName: "Aye", LastName: "Chan", Gender: reading.GenderFemale},
		BirthDate: time.Date(1995, time.June, 12, 0, 0, 0, 0, time.UTC),
		Lang:      reading.LanguageThai,
	}
}

func TestHoroscopePersistsCompleteReading(t *testing.T) {
	gen := &stubGenerator{sections: fullSections()}
	repo := memory.NewReadingRepository()
	svc, err := NewReadingService(gen, repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	r, err := svc.Horoscope(context.Background(), horoscopeRequest())
	if err != nil {
		t.Fatal(err)
	}
	if r.ID == "" {
		t.Fatal("reading has no id")
	}
	if r.Mahabote.Day.Name.Thai == "" {
		t.Fatal("mahabote result not populated")
	}
	stored, err := svc.Reading(context.Background(), r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Sections != fullSections() {
		t.Errorf("stored sections = %+v", stored.Sections)
	}
}

func TestHoroscopeGeneratorFailureStoresNothing(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	repo := memory.NewReadingRepository()
	svc, _ := NewReadingService(gen, repo, nil)

	_, err := svc.Horoscope(context.Background(), horoscopeRequest())
	if !errors.Is(err, reading.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestHoroscopeIncompleteSectionsRejected(t *testing.T) {
	sections := fullSections()
	sections.Advice = ""
	gen := &stubGenerator{sections: sections}
	svc, _ := NewReadingService(gen, memory.NewReadingRepository(), nil)

	_, err := svc.Horoscope(context.Background(), horoscopeRequest())
	if !errors.Is(err, reading.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestHoroscopeRejectsBadInput(t *testing.T) {
	svc, _ := NewReadingService(&stubGenerator{sections: fullSections()}, memory.NewReadingRepository(), nil)

	req := horoscopeRequest()
	req.Lang = "en"
	if _, err := svc.Horoscope(context.Background(), req); err != reading.ErrInvalidLanguage {
		t.Errorf("bad lang: err = %v", err)
	}

	req = horoscopeRequest()
	req.Profile.FirstName = ""
	if _, err := svc.Horoscope(context.Background(), req); err != reading.ErrInvalidProfile {
		t.Errorf("empty name: err = %v", err)
	}

	req = horoscopeRequest()
	req.BirthDate = time.Time{}
	if _, err := svc.Horoscope(context.Background(), req); err != mahabote.ErrZeroDate {
		t.Errorf("zero date: err = %v", err)
	}
}

func TestPalmValidatesResult(t *testing.T) {
	valid := reading.PalmReading{
		Analysis: reading.PalmAnalysis{Heart: "h", Head: "h", Life: "l", Fate: "f"},
		Lines: []reading.PalmLine{
			{Name: reading.LineHeart, Points: []reading.PalmPoint{{X: 0.1, Y: 0.2}}},
		},
	}
	svc, _ := NewReadingService(&stubGenerator{palm: valid}, memory.NewReadingRepository(), nil)

	got, err := svc.Palm(context.Background(), PalmRequest{Image: []byte{0xff}, ContentType: "image/jpeg", Lang: reading.LanguageBurmese})
	if err != nil {
		t.Fatal(err)
	}
	if got.Analysis != valid.Analysis {
		t.Errorf("analysis = %+v", got.Analysis)
	}

	bad := valid
	bad.Lines = []reading.PalmLine{{Name: "thumb", Points: []reading.PalmPoint{{X: 0, Y: 0}}}}
	svc, _ = NewReadingService(&stubGenerator{palm: bad}, memory.NewReadingRepository(), nil)
	if _, err := svc.Palm(context.Background(), PalmRequest{Image: []byte{0xff}, Lang: reading.LanguageThai}); !errors.Is(err, reading.ErrGenerationFailed) {
		t.Errorf("unknown line: err = %v", err)
	}

	if _, err := svc.Palm(context.Background(), PalmRequest{Lang: reading.LanguageThai}); err != reading.ErrEmptyPalmImage {
		t.Errorf("no image: err = %v", err)
	}
}

func TestChatAskLoadsReadingAndTrims(t *testing.T) {
	gen := &stubGenerator{sections: fullSections(), answer: "the stars say yes"}
	repo := memory.NewReadingRepository()
	readings, _ := NewReadingService(gen, repo, nil)
	chat, err := NewChatService(gen, repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	r, err := readings.Horoscope(context.Background(), horoscopeRequest())
	if err != nil {
		t.Fatal(err)
	}

	answer, err := chat.Ask(context.Background(), r.ID, "  will I travel?  ")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "the stars say yes" {
		t.Errorf("answer = %q", answer)
	}
	if gen.lastQuestion != "will I travel?" {
		t.Errorf("question = %q", gen.lastQuestion)
	}
	if gen.lastReading == nil || gen.lastReading.ID != r.ID {
		t.Error("generator did not receive the stored reading")
	}
}

func TestChatAskErrors(t *testing.T) {
	gen := &stubGenerator{}
	repo := memory.NewReadingRepository()
	chat, _ := NewChatService(gen, repo, nil)

	if _, err := chat.Ask(context.Background(), "id", "   "); err != ErrEmptyQuestion {
		t.Errorf("blank question: err = %v", err)
	}
	if _, err := chat.Ask(context.Background(), "missing", "q"); err != reading.ErrReadingNotFound {
		t.Errorf("missing reading: err = %v", err)
	}

	gen.answer = "  "
	repo.Create(context.Background(), &reading.Reading{ID: "r1"})
	if _, err := chat.Ask(context.Background(), "r1", "q"); !errors.Is(err, reading.ErrGenerationFailed) {
		t.Errorf("empty answer: err = %v", err)
	}
}
