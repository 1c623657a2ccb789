package verify

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// kanjidic2Char is the subset of a KANJIDIC2 <character> element this
// package needs: the literal kanji plus its on'yomi/kun'yomi readings.
type kanjidic2Char struct {
	Literal        string `xml:"literal"`
	ReadingMeaning struct {
		RMGroup []struct {
			Reading []struct {
				Value string `xml:",chardata"`
				Type  string `xml:"r_type,attr"`
			} `xml:"reading"`
		} `xml:"rmgroup"`
	} `xml:"reading_meaning"`
}

// ReadingIndex maps a single kanji rune to its dictionary readings, for
// the greedy per-kanji furigana alignment Align performs.
type ReadingIndex struct {
	readings map[rune][]string
}

// LoadKanjidic2 parses a KANJIDIC2 XML file into a ReadingIndex.
//
// Grounded on williambechard-japaneseparse/kanji/kanji.go's InitKanjidic2:
// the streaming xml.Decoder scan for <character> elements is kept as is;
// the per-kanji debug logging (every lookup, every rune) is dropped in
// favor of a single summary line via log/slog.
func LoadKanjidic2(path string) (*ReadingIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("verify: open kanjidic2 file: %w", err)
	}
	defer f.Close()

	idx := &ReadingIndex{readings: map[rune][]string{}}
	d := xml.NewDecoder(f)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("verify: parse kanjidic2 file: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "character" {
			continue
		}
		var c kanjidic2Char
		if err := d.DecodeElement(&c, &se); err != nil {
			continue
		}
		if utf8.RuneCountInString(c.Literal) != 1 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(c.Literal)
		var readings []string
		for _, group := range c.ReadingMeaning.RMGroup {
			for _, rd := range group.Reading {
				if rd.Type == "ja_on" || rd.Type == "ja_kun" {
					readings = append(readings, rd.Value)
				}
			}
		}
		idx.readings[r] = readings
	}
	slog.Info("verify: loaded kanjidic2", "entries", len(idx.readings))
	return idx, nil
}

// Readings returns the dictionary on'yomi/kun'yomi readings for r.
func (idx *ReadingIndex) Readings(r rune) []string {
	return idx.readings[r]
}

// Align performs a greedy per-kanji furigana alignment of reading
// (katakana or hiragana) against surface, bracketing each kanji run's
// matched reading span. It is a fallback signal for Verify when kagome's
// whole-word reconstruction disagrees with the expected reading: a kanji
// whose dictionary readings cannot account for any prefix of what is
// left of reading is the span most likely responsible for the mismatch.
//
// Grounded on williambechard-japaneseparse/kanji/kanji_test.go's
// alignFuriganaDemo, promoted from test-only code into a reusable method.
func (idx *ReadingIndex) Align(surface, reading string) string {
	surfaceRunes := []rune(surface)
	readingRunes := []rune(katakanaToHiragana(reading))
	var out strings.Builder
	k := 0
	for j := 0; j < len(surfaceRunes); j++ {
		s := surfaceRunes[j]
		if !isKanji(s) {
			out.WriteRune(s)
			if k < len(readingRunes) && readingRunes[k] == s {
				k++
			}
			continue
		}

		bestMatch := ""
		for _, kr := range idx.Readings(s) {
			krBase := katakanaToHiragana(kr)
			if j > 0 && strings.Contains(kr, ".") {
				krBase = katakanaToHiragana(strings.SplitN(kr, ".", 2)[0])
			}
			krRunes := []rune(krBase)
			for l := len(krRunes); l > 0; l-- {
				if k+l <= len(readingRunes) && string(readingRunes[k:k+l]) == string(krRunes[:l]) {
					if l > len([]rune(bestMatch)) {
						bestMatch = string(krRunes[:l])
					}
					break
				}
			}
		}

		if bestMatch != "" {
			out.WriteString("[" + bestMatch + "]")
			k += len([]rune(bestMatch))
			continue
		}

		isLastKanji := true
		for jj := j + 1; jj < len(surfaceRunes); jj++ {
			if isKanji(surfaceRunes[jj]) {
				isLastKanji = false
				break
			}
		}
		if isLastKanji && k < len(readingRunes) {
			out.WriteString("[" + string(readingRunes[k:]) + "]")
			k = len(readingRunes)
		} else {
			out.WriteString("[]")
		}
	}
	if k < len(readingRunes) {
		out.WriteString(string(readingRunes[k:]))
	}
	return out.String()
}

func isKanji(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}
