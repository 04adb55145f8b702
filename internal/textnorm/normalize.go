// Package textnorm turns keyword sequences into the normalized strings used as
// vectorizer input.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize tokenizes every element of tokens, keeps only purely alphanumeric
// tokens, lowercases them and joins the survivors with single spaces.
// Elements may be single keywords or raw text fragments.
func Normalize(tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, fragment := range tokens {
		if text := NormalizeText(fragment); text != "" {
			out = append(out, text)
		}
	}

	return strings.Join(out, " ")
}

// NormalizeText normalizes a single raw string.
func NormalizeText(text string) string {
	lower := cases.Lower(language.Und)

	var out []string
	for _, tok := range Tokenize(text) {
		tok = norm.NFKC.String(lower.String(norm.NFKC.String(tok)))
		if !isAlnum(tok) {
			continue
		}
		out = append(out, tok)
	}

	return strings.Join(out, " ")
}

type rule struct {
	re   *regexp.Regexp
	repl string
}

func rules(pairs ...string) []rule {
	out := make([]rule, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, rule{re: regexp.MustCompile(pairs[i]), repl: pairs[i+1]})
	}
	return out
}

func apply(text string, rs []rule) string {
	for _, r := range rs {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}

var (
	startingQuotes = rules(
		`^"`, `" `,
		`([ (\[{<])"`, `$1 " `,
	)

	punctuation = rules(
		// A period closing a word that is followed by more text ends a sentence.
		`([^\s.]{2,})\.(\s)`, `$1 .$2`,
		`([^.])(\.)([\])}>"']*)\s*$`, `$1 $2$3 `,
		`([;@#$%&?!])`, ` $1 `,
		`\.\.\.`, ` ... `,
		`([:,])([^\d])`, ` $1 $2`,
		`([:,])$`, ` $1 `,
		`([\]\[(){}<>])`, ` $1 `,
		`--`, ` -- `,
	)

	endingQuotes = rules(
		`"`, ` " `,
		`(\S)('')`, `$1 $2 `,
		`([^' ])('[sSmMdD]|') `, `$1 $2 `,
		`([^' ])('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `, `$1 $2 `,
	)

	contractions = rules(
		`(?i)\b(can)(not)\b`, `$1 $2`,
		`(?i)\b(d)('ye)\b`, `$1 $2`,
		`(?i)\b(gim)(me)\b`, `$1 $2`,
		`(?i)\b(gon)(na)\b`, `$1 $2`,
		`(?i)\b(got)(ta)\b`, `$1 $2`,
		`(?i)\b(lem)(me)\b`, `$1 $2`,
		`(?i)\b(wan)(na)\s`, `$1 $2 `,
	)
)

// Tokenize splits raw text into word tokens using Penn Treebank conventions:
// separators such as ";&@#$%?!" and brackets become tokens wherever they
// appear, ":" and "," split unless a digit follows ("1,000" stays whole),
// clitics like "'s" and "n't" are split from their stem and a sentence-final
// period is its own token. Other punctuation inside a word ("node.js",
// "rest-api") is left in place.
func Tokenize(text string) []string {
	text = apply(text, startingQuotes)
	text = apply(text, punctuation)
	text = " " + text + " "
	text = apply(text, endingQuotes)
	text = apply(text, contractions)

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func isAlnum(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
