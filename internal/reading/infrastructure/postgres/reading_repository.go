// Package postgres persists generated horoscope readings.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mahabote "mahabote-web/internal/mahabote/domain"
	reading "mahabote-web/internal/reading/domain"
)

// ReadingRepository persists readings. The Mahabote day is stored by slot
// and rebuilt from the day table on load.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository constructs a repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Create inserts a completed reading.
func (r *ReadingRepository) Create(ctx context.Context, rd *reading.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	if rd == nil {
		return reading.ErrNilReading
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO readings (id, first_name, middle_name, last_name, gender, lang, birth_date, day_slot,
                      gregorian_year, burmese_year, warning, personality, career, love, health, advice, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		rd.ID, rd.Profile.FirstName, nullString(rd.Profile.MiddleName), nullString(rd.Profile.LastName),
		string(rd.Profile.Gender), string(rd.Lang), rd.BirthDate, rd.Mahabote.Day.Slot,
		rd.Mahabote.GregorianYear, rd.Mahabote.BurmeseYear,
		rd.Sections.Warning, rd.Sections.Personality, rd.Sections.Career,
		rd.Sections.Love, rd.Sections.Health, rd.Sections.Advice, rd.CreatedAt)
	return err
}

// Get loads a reading by id.
func (r *ReadingRepository) Get(ctx context.Context, id string) (*reading.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, first_name, middle_name, last_name, gender, lang, birth_date, day_slot,
       gregorian_year, burmese_year, warning, personality, career, love, health, advice, created_at
FROM readings
WHERE id = $1`, id)

	var (
		rd        reading.Reading
		middle    sql.NullString
		last      sql.NullString
		gender    string
		lang      string
		slot      int
		gregorian int
		burmese   int
	)
	err := row.Scan(&rd.ID, &rd.Profile.FirstName, &middle, &last, &gender, &lang,
		&rd.BirthDate, &slot, &gregorian, &burmese,
		&rd.Sections.Warning, &rd.Sections.Personality, &rd.Sections.Career,
		&rd.Sections.Love, &rd.Sections.Health, &rd.Sections.Advice, &rd.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reading.ErrReadingNotFound
	}
	if err != nil {
		return nil, err
	}
	rd.Profile.MiddleName = middle.String
	rd.Profile.LastName = last.String
	rd.Profile.Gender = reading.Gender(gender)
	rd.Lang = reading.Language(lang)

	day, ok := mahabote.BirthDayBySlot(slot)
	if !ok {
		return nil, fmt.Errorf("reading repo: stored slot %d out of range", slot)
	}
	rd.Mahabote = mahabote.Result{Day: day, GregorianYear: gregorian, BurmeseYear: burmese}
	return &rd, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
