// Package numeral implements DynamicRewriters (spec.md §4.9): late
// materialisation of dynamic marker surfaces after k-best selection. The
// word_id used during the DP is already the marker class's reserved id,
// so materialisation only ever changes the displayed surface, never a
// cost.
//
// int2kanji has no grounding source anywhere in the retrieved reference
// pack (original_source/libakaza/src/numeric_counter.rs implements a
// full counter/alias system well beyond spec.md's digit rule, and no
// example repo converts integers to kanji numerals); it is written here
// from general knowledge of the Japanese numeral system (DESIGN.md notes
// this gap).
//
// DATE/TIME marker detection and materialisation (spec.md §3's
// "DATE-…"/"TIME-…" classes) are not implemented: neither spec.md nor
// original_source/ gives a concrete pattern or format for either, none
// of spec.md §8's end-to-end scenarios exercise them, and this module's
// reading domain (hiragana plus bare ASCII digit runs, per
// segmenter.Segment) has no multi-token date/time grammar to detect in
// the first place. See DESIGN.md for the recorded decision.
package numeral

import (
	"strconv"
	"strings"

	"akaza/model"
)

var kanjiDigits = [10]string{"〇", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// Int2Kanji renders a non-negative integer as a kanji numeral string
// ("365" -> "三百六十五"), grouping by 万/億/兆/京; the 京 group is the
// largest, so values of 1京 and above carry a multi-digit 京 block. A
// negative value is rendered with a leading "マイナス".
func Int2Kanji(n int64) string {
	if n == 0 {
		return kanjiDigits[0]
	}
	if n < 0 {
		return "マイナス" + Int2Kanji(-n)
	}

	units := []struct {
		value int64
		label string
	}{
		{1_0000_0000_0000_0000, "京"},
		{1_0000_0000_0000, "兆"},
		{1_0000_0000, "億"},
		{1_0000, "万"},
	}

	var b strings.Builder
	rest := n
	for _, u := range units {
		block := rest / u.value
		rest %= u.value
		if block > 0 {
			b.WriteString(fourDigitKanji(block))
			b.WriteString(u.label)
		}
	}
	if rest > 0 || n == 0 {
		b.WriteString(fourDigitKanji(rest))
	}
	return b.String()
}

// fourDigitKanji renders a value in [0, 9999] using the 千/百/十
// positional units, omitting a leading "一" before those units (十六,
// not 一十六) per conventional kanji-numeral style.
func fourDigitKanji(n int64) string {
	if n == 0 {
		return ""
	}
	var b strings.Builder
	thousands := n / 1000 % 10
	hundreds := n / 100 % 10
	tens := n / 10 % 10
	ones := n % 10

	writeUnit(&b, thousands, "千")
	writeUnit(&b, hundreds, "百")
	writeUnit(&b, tens, "十")
	if ones > 0 {
		b.WriteString(kanjiDigits[ones])
	}
	return b.String()
}

func writeUnit(b *strings.Builder, digit int64, unit string) {
	if digit == 0 {
		return
	}
	if digit > 1 {
		b.WriteString(kanjiDigits[digit])
	}
	b.WriteString(unit)
}

// Rewriters materialises dynamic marker surfaces. Only NUMBER-KANSUJI is
// implemented (see the package doc comment for why DATE/TIME are not);
// Materialize falls back to the literal reading for any other marker
// class.
type Rewriters struct{}

func New() *Rewriters {
	return &Rewriters{}
}

// Materialize returns the display surface for a marker node, given its
// reading (the literal digits/date-time text the Segmenter captured).
func (r *Rewriters) Materialize(marker model.MarkerClass, reading string) string {
	if marker == model.MarkerNumberKansuji {
		if n, err := strconv.ParseInt(reading, 10, 64); err == nil {
			return Int2Kanji(n)
		}
	}
	return reading
}
