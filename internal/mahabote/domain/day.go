package mahabote

// LocalizedText holds a value in the two supported display languages.
type LocalizedText struct {
	Burmese string
	Thai    string
}

// In returns the text for a language code ("my" or "th"), defaulting to Burmese.
func (t LocalizedText) In(lang string) string {
	if lang == "th" {
		return t.Thai
	}
	return t.Burmese
}

// BirthDay is one of the eight Mahabote birth-day classifications.
// Wednesday is split in two: births before noon keep the plain Wednesday
// slot, births in the afternoon fall under Rahu.
type BirthDay struct {
	Slot   int
	Name   LocalizedText
	Animal LocalizedText
	Planet LocalizedText
	Glyph  string
}

// birthDays is the fixed classification table. Slots 0..3 are
// Sunday..plain Wednesday, slot 4 is Rahu, slots 5..7 are
// Thursday..Saturday shifted by one.
var birthDays = [8]BirthDay{
	{Slot: 0, Name: LocalizedText{"တနင်္ဂနွေ", "วันอาทิตย์"}, Animal: LocalizedText{"ဂဠုန်", "ครุฑ"}, Planet: LocalizedText{"နေ", "อาทิตย์"}, Glyph: "☀️"},
	{Slot: 1, Name: LocalizedText{"တနင်္လာ", "วันจันทร์"}, Animal: LocalizedText{"ကျား", "เสือ"}, Planet: LocalizedText{"လ", "จันทร์"}, Glyph: "🌙"},
	{Slot: 2, Name: LocalizedText{"အင်္ဂါ", "วันอังคาร"}, Animal: LocalizedText{"ခြင်္သေ့", "สิงห์"}, Planet: LocalizedText{"အင်္ဂါ", "อังคาร"}, Glyph: "🦁"},
	{Slot: 3, Name: LocalizedText{"ဗုဒ္ဓဟူး", "วันพุธ"}, Animal: LocalizedText{"ဆင်", "ช้าง"}, Planet: LocalizedText{"ဗုဒ္ဓဟူး", "พุธ"}, Glyph: "🐘"},
	{Slot: 4, Name: LocalizedText{"ရာဟု", "ราหู"}, Animal: LocalizedText{"ဟိုင်း", "ช้างไม่มีงา"}, Planet: LocalizedText{"ရာဟု", "ราหู"}, Glyph: "🐘"},
	{Slot: 5, Name: LocalizedText{"ကြာသပတေး", "วันพฤหัสบดี"}, Animal: LocalizedText{"ကြွက်", "หนู"}, Planet: LocalizedText{"ကြာသပတေး", "พฤหัสบดี"}, Glyph: "🐭"},
	{Slot: 6, Name: LocalizedText{"သောကြာ", "วันศุกร์"}, Animal: LocalizedText{"ပူး", "หนูตะเภา"}, Planet: LocalizedText{"သောကြာ", "ศุกร์"}, Glyph: "🐹"},
	{Slot: 7, Name: LocalizedText{"စနေ", "วันเสาร์"}, Animal: LocalizedText{"နဂါး", "นาค"}, Planet: LocalizedText{"စနေ", "เสาร์"}, Glyph: "🐉"},
}

// BirthDayBySlot returns the classification for a slot index.
func BirthDayBySlot(slot int) (BirthDay, bool) {
	if slot < 0 || slot >= len(birthDays) {
		return BirthDay{}, false
	}
	return birthDays[slot], true
}
