package core

import (
	"fmt"
	"strings"
	"unicode"
)

// SentimentSignal is a polarity reading for one message.
type SentimentSignal struct {
	// Score is the sum of token valences.
	Score float64 `json:"score"`
	// Comparative is Score divided by the token count, so it does not grow
	// with message length.
	Comparative    float64  `json:"comparative"`
	PositiveTokens []string `json:"positive_tokens"`
	NegativeTokens []string `json:"negative_tokens"`
}

// NeutralSentiment is used whenever the analyzer fails.
func NeutralSentiment() SentimentSignal {
	return SentimentSignal{PositiveTokens: []string{}, NegativeTokens: []string{}}
}

// SentimentAnalyzer turns text into a SentimentSignal. Implementations must be
// safe for concurrent use.
type SentimentAnalyzer interface {
	Analyze(text string) (SentimentSignal, error)
}

// SentimentFunc adapts a plain function to SentimentAnalyzer.
type SentimentFunc func(text string) (SentimentSignal, error)

// Analyze implements SentimentAnalyzer.
func (f SentimentFunc) Analyze(text string) (SentimentSignal, error) {
	return f(text)
}

// LexiconAnalyzer scores text against a word valence lexicon (-5..+5). A
// negator immediately before a lexicon word flips that word's valence.
type LexiconAnalyzer struct {
	lexicon  map[string]int
	negators map[string]bool
}

// NewLexiconAnalyzer returns an analyzer backed by the built-in English lexicon.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{
		lexicon:  builtinLexicon,
		negators: builtinNegators,
	}
}

// NewLexiconAnalyzerWith returns an analyzer using the built-in lexicon
// extended (or overridden) by extra.
func NewLexiconAnalyzerWith(extra map[string]int) (*LexiconAnalyzer, error) {
	merged := make(map[string]int, len(builtinLexicon)+len(extra))
	for k, v := range builtinLexicon {
		merged[k] = v
	}
	for k, v := range extra {
		if v < -5 || v > 5 {
			return nil, fmt.Errorf("lexicon value for %q must be in [-5,5], got %d", k, v)
		}
		merged[strings.ToLower(k)] = v
	}
	return &LexiconAnalyzer{lexicon: merged, negators: builtinNegators}, nil
}

// Analyze implements SentimentAnalyzer. It never fails.
func (a *LexiconAnalyzer) Analyze(text string) (SentimentSignal, error) {
	sig := NeutralSentiment()
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return sig, nil
	}

	var total int
	for i, tok := range tokens {
		v, ok := a.lexicon[tok]
		if !ok || v == 0 {
			continue
		}
		if i > 0 && a.negators[tokens[i-1]] {
			v = -v
		}
		total += v
		if v > 0 {
			sig.PositiveTokens = append(sig.PositiveTokens, tok)
		} else {
			sig.NegativeTokens = append(sig.NegativeTokens, tok)
		}
	}

	sig.Score = float64(total)
	sig.Comparative = sig.Score / float64(len(tokens))
	return sig, nil
}

// Tokenize lowercases text and splits it into words. Apostrophes inside words
// are kept ("don't"); everything else that is not a letter or digit separates
// tokens.
func Tokenize(text string) []string {
	text = strings.ToLower(NormalizeText(text))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'')
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
