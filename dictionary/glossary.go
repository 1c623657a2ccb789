// Glossary enrichment is a side aid for `evaluate --format json` (spec.md
// §6): attach human-readable JMdict/ENAMDICT glosses to a candidate
// surface for manual review. It is never consulted on the conversion hot
// path (spec.md's Non-goals exclude dictionary editing tools, but an
// evaluation aid is fair game -- SPEC_FULL.md §4.10).
//
// Grounded on
// _examples/williambechard-japaneseparse/dictionary.go's
// LoadJMdict/LookupJMdictEntry/convertJMdictEntry, adapted onto
// model.DictionaryEntry and structured logging.
package dictionary

import (
	"log/slog"
	"os"
	"strings"
	"unicode"

	jmdict "github.com/yomidevs/jmdict-go"

	"akaza/model"
)

// Glossary indexes JMdict and ENAMDICT entries by kanji/reading for
// lookup enrichment.
type Glossary struct {
	jmIndex   map[string][]*jmdict.JmdictEntry
	enamIndex map[string][]*jmdict.JmdictEntry
}

var globalGlossary *Glossary

// LoadGlossary parses JMdict and ENAMDICT XML files and builds lookup
// indexes. Either path may be empty to skip that source. Load failures
// are logged, not fatal: glossary enrichment is optional (spec.md §7).
func LoadGlossary(jmdictPath, enamdictPath string) *Glossary {
	g := &Glossary{
		jmIndex:   map[string][]*jmdict.JmdictEntry{},
		enamIndex: map[string][]*jmdict.JmdictEntry{},
	}
	if jmdictPath != "" {
		if err := g.load(jmdictPath, g.jmIndex); err != nil {
			slog.Warn("dictionary: failed to load JMdict", "path", jmdictPath, "err", err)
		}
	}
	if enamdictPath != "" {
		if err := g.load(enamdictPath, g.enamIndex); err != nil {
			slog.Warn("dictionary: failed to load ENAMDICT", "path", enamdictPath, "err", err)
		}
	}
	return g
}

func (g *Glossary) load(path string, index map[string][]*jmdict.JmdictEntry) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dict, _, err := jmdict.LoadJmdict(f)
	if err != nil {
		return err
	}
	for i := range dict.Entries {
		entry := &dict.Entries[i]
		for _, k := range entry.Kanji {
			index[k.Expression] = append(index[k.Expression], entry)
		}
		for _, r := range entry.Readings {
			index[r.Reading] = append(index[r.Reading], entry)
		}
	}
	return nil
}

// SetGlobal installs g as the process-wide glossary used by Enrich. The
// evaluate command calls this once at startup if gloss enrichment was
// requested.
func SetGlobal(g *Glossary) {
	globalGlossary = g
}

// Enrich returns a DictionaryEntry for surface, drawing on the global
// glossary if one was installed. Returns a "none" source entry if no
// glossary is loaded or no match is found.
func Enrich(surface, reading string) model.DictionaryEntry {
	if globalGlossary == nil {
		return model.DictionaryEntry{Kanji: []string{surface}, Readings: []string{reading}, Source: "none"}
	}
	return globalGlossary.Enrich(surface, reading)
}

func (g *Glossary) Enrich(surface, reading string) model.DictionaryEntry {
	if entry, ok := g.lookup(g.jmIndex, surface); ok {
		return convertEntry(entry, "JMdict")
	}
	if entry, ok := g.lookup(g.enamIndex, surface); ok {
		return convertEntry(entry, "ENAMDICT")
	}
	return model.DictionaryEntry{Kanji: []string{surface}, Readings: []string{reading}, Source: "none"}
}

func (g *Glossary) lookup(index map[string][]*jmdict.JmdictEntry, key string) (*jmdict.JmdictEntry, bool) {
	keyNorm := normalizeJapanese(key)
	for dictKey, entries := range index {
		if keyNorm == normalizeJapanese(dictKey) {
			return entries[0], true
		}
	}
	return nil, false
}

func normalizeJapanese(s string) string {
	var out []rune
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 0x30A0 && r <= 0x30FF: // katakana -> hiragana
			out = append(out, r-0x60)
		case unicode.IsPunct(r) || unicode.IsSpace(r):
			continue
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func convertEntry(jm *jmdict.JmdictEntry, source string) model.DictionaryEntry {
	var kanji, readings, glosses, pos []string
	for _, k := range jm.Kanji {
		kanji = append(kanji, k.Expression)
	}
	for _, r := range jm.Readings {
		readings = append(readings, r.Reading)
	}
	for _, s := range jm.Sense {
		for _, gl := range s.Glossary {
			glosses = append(glosses, gl.Content)
		}
		pos = append(pos, s.PartsOfSpeech...)
	}
	return model.DictionaryEntry{
		Kanji:    kanji,
		Readings: readings,
		Glosses:  glosses,
		POS:      pos,
		Source:   source,
	}
}
