package lm

import "strings"

const numPlaceholder = "<NUM>"

// normalizeForLM implements the resolved numeric-normalisation rule
// (SPEC_FULL.md §4.11, item 1), grounded on
// _examples/original_source/libakaza/src/graph/graph_builder.rs's
// normalize_surface_for_lm and its unit test:
//
//   - A leading run of ASCII digits at position 0 of the surface is
//     normalised to "<NUM>", provided it is followed by a non-empty
//     suffix. Bare digits with no suffix are left untouched (gating on
//     the surface alone, since the normalize_surface_for_lm Rust
//     source folds `None` for an empty surface_suffix before ever
//     looking at the reading).
//   - Once the surface qualifies, the reading's leading digit run (if
//     any -- it may be zero digits) is unconditionally replaced by
//     "<NUM>" too: normalize_surface_for_lm takes reading_digit_end
//     and reading_suffix unconditionally, with no suffix-non-empty
//     check on the reading side the way there is on the surface side.
//
// Examples: "1/1" -> unchanged (bare digits); "1匹/1ひき" ->
// "<NUM>匹/<NUM>ひき"; "第1回/だい1かい" -> unchanged (digit run does not
// start at position 0); "1.5匹/..." -> "<NUM>.5匹/..." (the leading-digit
// scan stops at the decimal point).
func normalizeForLM(key string) (string, bool) {
	surface, reading, ok := strings.Cut(key, "/")
	if !ok {
		return key, false
	}
	nSurface, okSurface := normalizeLeadingDigits(surface)
	if !okSurface {
		return key, false
	}
	return nSurface + "/" + numPlaceholder + stripLeadingDigits(reading), true
}

func normalizeLeadingDigits(s string) (string, bool) {
	suffix := stripLeadingDigits(s)
	if suffix == s {
		return s, false
	}
	if suffix == "" {
		return s, false
	}
	return numPlaceholder + suffix, true
}

// stripLeadingDigits returns s with its leading run of ASCII digits (if
// any) removed; it returns s unchanged if s has no leading digit.
func stripLeadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[i:]
}
