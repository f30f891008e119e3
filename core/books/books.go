// Package books holds the static registry of Bible book abbreviations used
// by SCML reference text.
//
// The table is immutable and built once at package init. Several
// abbreviations alias the same canonical book; a few aliases carry their own
// display name (for example "So" displays as "Song").
package books

import (
	"strings"
	"unicode"

	"github.com/gerdums/study-notes/internal/logging"
)

// UnknownNumber is the book number returned for abbreviations that are not in
// the registry. It sorts before every real book.
const UnknownNumber = "00"

// Details describes a resolved book.
type Details struct {
	Name     string `json:"name"`      // abbreviated display name, e.g. "Gen."
	Number   string `json:"num"`       // zero-padded canonical number "01".."66"
	FullName string `json:"full_name"` // e.g. "Genesis"
}

// Known reports whether d came from the registry rather than the fallback.
func (d Details) Known() bool {
	return d.Number != UnknownNumber
}

type entry struct {
	Details
	Aliases []string
}

// table lists books in canonical order. The first entry for a number is the
// canonical one.
var table = []entry{
	// Pentateuch
	{Details{"Gen.", "01", "Genesis"}, []string{"Ge", "Gen"}},
	{Details{"Ex.", "02", "Exodus"}, []string{"Ex", "Exo"}},
	{Details{"Lev.", "03", "Leviticus"}, []string{"Le", "Lev"}},
	{Details{"Num.", "04", "Numbers"}, []string{"Nu", "Num"}},
	{Details{"Deut.", "05", "Deuteronomy"}, []string{"De", "Dt", "Deut"}},
	// History
	{Details{"Josh.", "06", "Joshua"}, []string{"Jos", "Josh"}},
	{Details{"Judg.", "07", "Judges"}, []string{"Jdg", "Judg"}},
	{Details{"Ruth", "08", "Ruth"}, []string{"Ru", "Ruth"}},
	{Details{"1 Sam.", "09", "1 Samuel"}, []string{"1Sa", "1 Sam"}},
	{Details{"2 Sam.", "10", "2 Samuel"}, []string{"2Sa", "2 Sam"}},
	{Details{"1 Kings", "11", "1 Kings"}, []string{"1Ki", "1 Kin", "1Kgs"}},
	{Details{"2 Kings", "12", "2 Kings"}, []string{"2Ki", "2 Kin", "2Kgs"}},
	{Details{"1 Chron.", "13", "1 Chronicles"}, []string{"1Ch", "1 Chr"}},
	{Details{"2 Chron.", "14", "2 Chronicles"}, []string{"2Ch", "2 Chr"}},
	{Details{"Ezra", "15", "Ezra"}, []string{"Ezr"}},
	{Details{"Neh.", "16", "Nehemiah"}, []string{"Ne", "Neh"}},
	{Details{"Est.", "17", "Esther"}, []string{"Est"}},
	// Wisdom
	{Details{"Job", "18", "Job"}, []string{"Job"}},
	{Details{"Ps.", "19", "Psalms"}, []string{"Ps", "Psa", "Pss"}},
	{Details{"Prov.", "20", "Proverbs"}, []string{"Pr", "Prov"}},
	{Details{"Eccl.", "21", "Ecclesiastes"}, []string{"Ec", "Eccl"}},
	{Details{"Song of Sol.", "22", "Song of Solomon"}, []string{"Song", "SOS"}},
	{Details{"Song", "22", "Song of Solomon"}, []string{"So"}},
	// Major Prophets
	{Details{"Isa.", "23", "Isaiah"}, []string{"Is", "Isa"}},
	{Details{"Jer.", "24", "Jeremiah"}, []string{"Je", "Jer"}},
	{Details{"Lam.", "25", "Lamentations"}, []string{"La"}},
	{Details{"Ezek.", "26", "Ezekiel"}, []string{"Eze", "Ezek"}},
	{Details{"Dan.", "27", "Daniel"}, []string{"Da", "Dan"}},
	// Minor Prophets
	{Details{"Hos.", "28", "Hosea"}, []string{"Ho", "Hos"}},
	{Details{"Joel", "29", "Joel"}, []string{"Joe"}},
	{Details{"Amos", "30", "Amos"}, []string{"Am"}},
	{Details{"Obad.", "31", "Obadiah"}, []string{"Ob"}},
	{Details{"Jonah", "32", "Jonah"}, []string{"Jon"}},
	{Details{"Mic.", "33", "Micah"}, []string{"Mic"}},
	{Details{"Nah.", "34", "Nahum"}, []string{"Na"}},
	{Details{"Hab.", "35", "Habakkuk"}, []string{"Hab"}},
	{Details{"Zeph.", "36", "Zephaniah"}, []string{"Zep", "Zeph"}},
	{Details{"Hag.", "37", "Haggai"}, []string{"Hag"}},
	{Details{"Zech.", "38", "Zechariah"}, []string{"Zec", "Zech"}},
	{Details{"Mal.", "39", "Malachi"}, []string{"Mal"}},
	// Gospels
	{Details{"Matt.", "40", "Matthew"}, []string{"Mt", "Matt"}},
	{Details{"Mark", "41", "Mark"}, []string{"Mk"}},
	{Details{"Luke", "42", "Luke"}, []string{"Lu", "Lk"}},
	{Details{"John", "43", "John"}, []string{"Jn"}},
	// Acts
	{Details{"Acts", "44", "Acts"}, []string{"Ac"}},
	// Pauline Epistles
	{Details{"Rom.", "45", "Romans"}, []string{"Ro", "Rom"}},
	{Details{"1 Cor.", "46", "1 Corinthians"}, []string{"1Co", "1Cor"}},
	{Details{"2 Cor.", "47", "2 Corinthians"}, []string{"2Co", "2Cor"}},
	{Details{"Gal.", "48", "Galatians"}, []string{"Ga", "Gal"}},
	{Details{"Eph.", "49", "Ephesians"}, []string{"Eph"}},
	{Details{"Phil.", "50", "Philippians"}, []string{"Php", "Phil"}},
	{Details{"Col.", "51", "Colossians"}, []string{"Col"}},
	{Details{"1 Thess.", "52", "1 Thessalonians"}, []string{"1Th", "1Thess"}},
	{Details{"2 Thess.", "53", "2 Thessalonians"}, []string{"2Th", "2Thess"}},
	{Details{"1 Tim.", "54", "1 Timothy"}, []string{"1Ti", "1Tim"}},
	{Details{"2 Tim.", "55", "2 Timothy"}, []string{"2Ti", "2Tim"}},
	{Details{"Titus", "56", "Titus"}, []string{"Tit"}},
	{Details{"Philem.", "57", "Philemon"}, []string{"Phm", "Philemon"}},
	// General Epistles
	{Details{"Heb.", "58", "Hebrews"}, []string{"Heb"}},
	{Details{"Jas.", "59", "James"}, []string{"Jam", "Jas"}},
	{Details{"1 Pet.", "60", "1 Peter"}, []string{"1Pe", "1Pet"}},
	{Details{"2 Pet.", "61", "2 Peter"}, []string{"2Pe", "2Pet"}},
	{Details{"1 John", "62", "1 John"}, []string{"1Jn"}},
	{Details{"2 John", "63", "2 John"}, []string{"2Jn"}},
	{Details{"3 John", "64", "3 John"}, []string{"3Jn"}},
	{Details{"Jude", "65", "Jude"}, []string{"Jude", "Jud", "Jd"}},
	// Revelation
	{Details{"Rev.", "66", "Revelation"}, []string{"Rev"}},
}

var (
	byAlias    map[string]Details
	byNumber   map[string]Details
	byFullName map[string]Details
)

func init() {
	byAlias = make(map[string]Details, len(table)*2)
	byNumber = make(map[string]Details, 66)
	byFullName = make(map[string]Details, 66)
	for _, e := range table {
		for _, a := range e.Aliases {
			byAlias[a] = e.Details
		}
		if _, ok := byNumber[e.Number]; !ok {
			byNumber[e.Number] = e.Details
		}
		if _, ok := byFullName[strings.ToLower(e.FullName)]; !ok {
			byFullName[strings.ToLower(e.FullName)] = e.Details
		}
	}
}

// Find resolves an abbreviation without logging. It tries the title-cased
// form, then the title-cased form without a trailing "s", then the raw input.
func Find(abbr string) (Details, bool) {
	norm := TitleCase(abbr)
	if d, ok := byAlias[norm]; ok {
		return d, true
	}
	if strings.HasSuffix(norm, "s") {
		if d, ok := byAlias[strings.TrimSuffix(norm, "s")]; ok {
			return d, true
		}
	}
	if d, ok := byAlias[abbr]; ok {
		return d, true
	}
	return Details{}, false
}

// Lookup resolves an abbreviation. Unknown abbreviations are logged and
// degrade to Details{Name: abbr, Number: "00", FullName: abbr}.
func Lookup(abbr string) Details {
	if d, ok := Find(abbr); ok {
		return d
	}
	logging.UnknownBook(abbr)
	return Unknown(abbr)
}

// Unknown returns the fallback details for an unrecognized abbreviation.
func Unknown(abbr string) Details {
	return Details{Name: abbr, Number: UnknownNumber, FullName: abbr}
}

// ByNumber returns the canonical entry for a two-digit book number.
func ByNumber(num string) (Details, bool) {
	d, ok := byNumber[num]
	return d, ok
}

// ByFullName returns the canonical entry for a full book name, ignoring case.
func ByFullName(name string) (Details, bool) {
	d, ok := byFullName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// All returns the canonical books in order, one per number.
func All() []Details {
	out := make([]Details, 0, len(byNumber))
	seen := make(map[string]bool, len(byNumber))
	for _, e := range table {
		if seen[e.Number] {
			continue
		}
		seen[e.Number] = true
		out = append(out, e.Details)
	}
	return out
}

// TitleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "1sam" becomes "1Sam" and "SOS" becomes "Sos".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
