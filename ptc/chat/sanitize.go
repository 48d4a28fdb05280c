package chat

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxReplyRunes is the display budget before sentence truncation kicks in.
const maxReplyRunes = 150

// sentenceEnds are the truncation candidates, checked for their earliest
// occurrence.
var sentenceEnds = [...]string{". ", "? ", "! "}

// Sanitizer cleans raw engine output into a display-ready string. The rules
// are heuristics coupled to the Phi-2 family's observed failure modes
// (echoed speaker labels, stray list markers, run-on generations); they live
// behind this one type so they can be swapped without touching the pipeline.
type Sanitizer struct {
	// whitespace normalization
	trailingWS *regexp.Regexp
	multiBlank *regexp.Regexp
	// residual role-label artifacts, each stripped from the start of a line
	loneMarker   *regexp.Regexp
	speakerLabel *regexp.Regexp
	bulletMarker *regexp.Regexp
}

// NewSanitizer compiles the cleanup patterns once.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		trailingWS:   regexp.MustCompile(`[ \t]+\n`),
		multiBlank:   regexp.MustCompile(`\n{3,}`),
		loneMarker:   regexp.MustCompile(`(\n|^)\s*[\.:]\s*`),
		speakerLabel: regexp.MustCompile(`(\n|^)\s*[A-Z][a-z]+:\s*`),
		bulletMarker: regexp.MustCompile(`(\n|^)\s*\*+\s*`),
	}
}

// Sanitize runs the cleanup pipeline. Pure and total: unusable input yields
// an empty string, which the caller replaces with a placeholder.
//
// Stages, in order: printable filter, whitespace normalization, marker
// stripping, sentence truncation past maxReplyRunes, final trim.
func (s *Sanitizer) Sanitize(raw string) string {
	t := dropUnprintable(raw)

	t = s.trailingWS.ReplaceAllString(t, "\n")
	t = s.multiBlank.ReplaceAllString(t, "\n\n")
	t = strings.TrimSpace(t)

	t = s.loneMarker.ReplaceAllString(t, "")
	t = s.speakerLabel.ReplaceAllString(t, "")
	t = s.bulletMarker.ReplaceAllString(t, "")

	t = truncateAtSentence(t)

	return strings.TrimSpace(t)
}

// dropUnprintable removes control and binary artifacts from the raw decode.
// Newlines survive so the line-oriented rules downstream have structure to
// work with; all other control characters (\r, \t included) are dropped.
func dropUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
}

// truncateAtSentence cuts overlong text immediately after the earliest
// sentence-ending punctuation. Text with no sentence end is returned
// unshortened, a documented exception to the length bound.
func truncateAtSentence(t string) string {
	if utf8.RuneCountInString(t) <= maxReplyRunes {
		return t
	}
	cut := -1
	for _, mark := range sentenceEnds {
		if i := strings.Index(t, mark); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return t
	}
	return t[:cut+1]
}
