package verify

import "testing"

func TestAlignForIriminaiKawa(t *testing.T) {
	idx := &ReadingIndex{readings: map[rune][]string{
		'入': {"いり"},
		'見': {"み.る"},
		'内': {"ない"},
		'川': {"セン"},
	}}
	surface := "入見内川"
	reading := "イリミナイカワ"
	got := idx.Align(surface, reading)
	want := "[いり][み][ない][かわ]"
	if got != want {
		t.Errorf("Align(%q, %q) = %q, want %q", surface, reading, got, want)
	}
}
