package numeral

import "testing"

func TestInt2Kanji(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "〇"},
		{5, "五"},
		{10, "十"},
		{16, "十六"}, // not 一十六
		{100, "百"}, // not 一百
		{365, "三百六十五"},
		{1000, "千"},    // not 一千
		{10000, "一万"}, // 一万, unlike the bare positional units
		{12345, "一万二千三百四十五"},
		{-5, "マイナス五"},
	}
	for _, c := range cases {
		if got := Int2Kanji(c.in); got != c.want {
			t.Errorf("Int2Kanji(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMaterializeOnlyRewritesNumberKansuji(t *testing.T) {
	r := New()
	if got := r.Materialize("NUMBER-KANSUJI", "365"); got != "三百六十五" {
		t.Errorf("Materialize(NUMBER-KANSUJI, 365) = %q, want 三百六十五", got)
	}
	if got := r.Materialize("DATE", "2026-08-03"); got != "2026-08-03" {
		t.Errorf("Materialize(DATE, ...) = %q, want the literal reading unchanged", got)
	}
	if got := r.Materialize("NUMBER-KANSUJI", "not-a-number"); got != "not-a-number" {
		t.Errorf("Materialize with unparseable reading = %q, want the literal reading", got)
	}
}
