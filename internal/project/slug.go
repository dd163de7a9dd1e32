package project

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// diacritics maps accented Latin letters to their base letters. It covers
// the acute, cedil, circ, grave, lig, orn, ring, slash, th, tilde and uml
// classes and nothing else: other letters are treated as separators.
var diacritics = map[rune]string{
	// acute
	'Á': "A", 'É': "E", 'Í': "I", 'Ó': "O", 'Ú': "U", 'Ý': "Y",
	'á': "a", 'é': "e", 'í': "i", 'ó': "o", 'ú': "u", 'ý': "y",
	// cedil
	'Ç': "C", 'ç': "c",
	// circ
	'Â': "A", 'Ê': "E", 'Î': "I", 'Ô': "O", 'Û': "U",
	'â': "a", 'ê': "e", 'î': "i", 'ô': "o", 'û': "u",
	// grave
	'À': "A", 'È': "E", 'Ì': "I", 'Ò': "O", 'Ù': "U",
	'à': "a", 'è': "e", 'ì': "i", 'ò': "o", 'ù': "u",
	// lig
	'Æ': "AE", 'æ': "ae", 'Œ': "OE", 'œ': "oe", 'ß': "sz",
	// orn
	'Þ': "TH", 'þ': "th",
	// ring
	'Å': "A", 'å': "a",
	// slash
	'Ø': "O", 'ø': "o",
	// th
	'Ð': "E", 'ð': "e",
	// tilde
	'Ã': "A", 'Ñ': "N", 'Õ': "O", 'ã': "a", 'ñ': "n", 'õ': "o",
	// uml
	'Ä': "A", 'Ë': "E", 'Ï': "I", 'Ö': "O", 'Ü': "U", 'Ÿ': "Y",
	'ä': "a", 'ë': "e", 'ï': "i", 'ö': "o", 'ü': "u", 'ÿ': "y",
}

// Slugify derives the canonical project identifier from a display name:
// accented letters are transliterated, every run of other non-alphanumeric
// characters becomes a single hyphen, edge hyphens are trimmed and the
// result is lowercased. A name without usable characters yields "".
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	write := func(s string) {
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteString(s)
	}

	for _, r := range norm.NFC.String(name) {
		switch {
		case isASCIIAlnum(r):
			write(string(r))
		case diacritics[r] != "":
			write(diacritics[r])
		default:
			pendingHyphen = true
		}
	}

	return strings.ToLower(b.String())
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
