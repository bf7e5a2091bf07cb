// Package sanitize normalizes free-form taxonomy and name strings into path
// segments that are safe to join under a store root.
//
// Both functions are total: every input yields a segment made only of
// allow-listed bytes, so "..", "/" and "\" can never survive.
package sanitize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	folderSeparator = '_'
	fileSeparator   = '-'
)

// conjunctions are folded to '+' in file segments, longest first so that
// ", and " is not consumed as ", " followed by "and ".
var conjunctions = strings.NewReplacer(
	", and ", "+",
	", ", "+",
	" and ", "+",
	" & ", "+",
)

// Folder normalizes raw into a directory segment: lower-case, spaces to '_',
// only [a-z0-9_] kept, runs of '_' collapsed and trimmed. Blank input
// returns def.
func Folder(raw, def string) string {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	s := lower(raw)
	s = strings.ReplaceAll(s, " ", string(folderSeparator))
	return normalize(s, folderSeparator, isFolderByte)
}

// File normalizes raw into a file-name segment: lower-case, conjunctions
// folded to '+', spaces to '-', only [a-z0-9+-] kept, runs of '-'
// collapsed and trimmed. Blank input returns def.
//
//	File("Fire, Water, and Earth", "") == "fire+water+earth"
func File(raw, def string) string {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	s := conjunctions.Replace(lower(raw))
	s = strings.ReplaceAll(s, " ", string(fileSeparator))
	return normalize(s, fileSeparator, isFileByte)
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isFolderByte(c byte) bool {
	return isAlnum(c) || c == folderSeparator
}

func isFileByte(c byte) bool {
	return isAlnum(c) || c == fileSeparator || c == '+'
}

// normalize drops bytes rejected by allowed, collapses runs of sep and
// trims sep from both ends. Multi-byte runes never pass allowed.
func normalize(s string, sep byte, allowed func(byte) bool) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingSep := false
	for i := range len(s) {
		c := s[i]
		if !allowed(c) {
			continue
		}
		if c == sep {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte(sep)
			pendingSep = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
