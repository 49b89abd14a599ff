package mahabote

import "time"

// Burmese era offsets relative to the Gregorian year. Thingyan (the
// Burmese new year) falls mid-April; before it the offset is one larger.
// The exact festival date varies by year, a fixed cutoff is used.
const (
	offsetBeforeThingyan = 639
	offsetAfterThingyan  = 638

	thingyanCutoffMonth = time.April
	thingyanCutoffDay   = 17
)

// Result is the outcome of a Mahabote calculation.
type Result struct {
	Day           BirthDay
	GregorianYear int
	BurmeseYear   int
}

// Calculate maps a birth date to its Mahabote classification and era year.
// wednesdayAfternoon selects the Rahu slot and is ignored for any other
// weekday. The calculation is pure; callers are responsible for rejecting
// future dates.
func Calculate(birthDate time.Time, wednesdayAfternoon bool) (Result, error) {
	if birthDate.IsZero() {
		return Result{}, ErrZeroDate
	}

	slot := int(birthDate.Weekday()) // Sunday=0 .. Saturday=6
	switch {
	case slot == int(time.Wednesday) && wednesdayAfternoon:
		slot = 4 // Rahu
	case slot > int(time.Wednesday):
		slot++ // Thursday..Saturday shift past the Rahu slot
	}

	day, ok := BirthDayBySlot(slot)
	if !ok {
		return Result{}, ErrInvalidDate
	}

	return Result{
		Day:           day,
		GregorianYear: birthDate.Year(),
		BurmeseYear:   birthDate.Year() - EraOffset(birthDate),
	}, nil
}

// EraOffset returns the Gregorian-to-Burmese year offset in effect for a
// date: 639 before the Thingyan cutoff, 638 on and after it.
func EraOffset(date time.Time) int {
	if beforeThingyan(date) {
		return offsetBeforeThingyan
	}
	return offsetAfterThingyan
}

func beforeThingyan(date time.Time) bool {
	if date.Month() != thingyanCutoffMonth {
		return date.Month() < thingyanCutoffMonth
	}
	return date.Day() < thingyanCutoffDay
}
