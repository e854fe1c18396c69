package extraction

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Stopwords is a set of lowercase words dropped by Tokenize
type Stopwords map[string]struct{}

// NewStopwords builds a set from words, lowercasing each
func NewStopwords(words ...string) Stopwords {
	s := make(Stopwords, len(words))
	for _, w := range words {
		s[normalizeToken(w)] = struct{}{}
	}
	return s
}

// Contains reports whether token is a stopword
func (s Stopwords) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Tokenize splits text into lowercase alphanumeric tokens, dropping stopwords.
// Punctuation attached to a word is split off and discarded, so "CNPJ:"
// yields "cnpj" while "11.222.333/0001-81" yields nothing. Words are also
// broken at a ':' or ',' not followed by a digit and at currency symbols:
// "Pagamento:Dinheiro" yields "pagamento", "dinheiro" and "R$50" yields
// "r", "50", while "50,00" and "10:22" stay whole.
func Tokenize(text string, stopwords Stopwords) []string {
	tokens := make([]string, 0)
	for _, word := range strings.Fields(text) {
		for _, piece := range splitWord(word) {
			core := strings.TrimFunc(piece, isPunctOrSymbol)
			if core == "" {
				continue
			}
			token := normalizeToken(core)
			if !isAlnum(token) || stopwords.Contains(token) {
				continue
			}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// splitWord cuts word at separators that end a token inside it
func splitWord(word string) []string {
	rs := []rune(word)
	pieces := make([]string, 0, 1)
	start := 0
	for i, r := range rs {
		if !isSeparator(rs, i, r) {
			continue
		}
		pieces = append(pieces, string(rs[start:i]))
		start = i + 1
	}
	return append(pieces, string(rs[start:]))
}

func isSeparator(rs []rune, i int, r rune) bool {
	if unicode.Is(unicode.Sc, r) {
		return true
	}
	if r != ':' && r != ',' {
		return false
	}
	return i+1 == len(rs) || !unicode.IsDigit(rs[i+1])
}

// normalizeToken lowercases with Portuguese rules and composes accents so
// "série" typed with a combining mark still compares equal. A Caser is
// stateful, so one is built per call.
func normalizeToken(s string) string {
	return norm.NFC.String(cases.Lower(language.BrazilianPortuguese).String(s))
}

func isPunctOrSymbol(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
