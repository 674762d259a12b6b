// internal/chart/intent/classifier.go
package intent

import (
	"strings"
	"unicode"
)

// Rule identifies which classification rule decided an utterance.
type Rule int

const (
	RuleNone Rule = iota
	RuleCreatePrefix
	RuleChartPhrase
	RuleChartNoun
	RuleKeywordConjunction
)

func (r Rule) String() string {
	switch r {
	case RuleCreatePrefix:
		return "create_prefix"
	case RuleChartPhrase:
		return "chart_phrase"
	case RuleChartNoun:
		return "chart_noun"
	case RuleKeywordConjunction:
		return "keyword_conjunction"
	default:
		return "conversational"
	}
}

type Classification struct {
	IsChartRequest bool `json:"isChartRequest"`
	Rule           Rule `json:"rule"`
}

var chartPhrases = []string{
	"make a chart",
	"make me a chart",
	"create a chart",
	"generate a chart",
	"draw a chart",
	"show me a",
	"breakdown of",
	"visualize the",
	"plot the",
	"chart of",
	"graph of",
}

var chartNouns = map[string]bool{
	"chart":  true,
	"charts": true,
	"graph":  true,
	"graphs": true,
}

var chartNounPhrases = []string{"pie chart", "bar chart", "line chart"}

var visualizationKeywords = []string{
	"create", "generate", "show", "visualiz", "plot", "trend",
	"distribution", "comparison", "compare", "display", "draw", "breakdown",
}

var domainTerms = []string{
	"revenue", "patient", "payment", "insurance", "billing", "total", "amount", "data",
}

var relationalTerms = map[string]bool{
	"by":           true,
	"per":          true,
	"breakdown":    true,
	"distribution": true,
	"comparison":   true,
	"analysis":     true,
}

// Classify decides whether an utterance asks for a chart. Rules are tried in
// order and the first match wins.
func Classify(utterance string) Classification {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	if lower == "" {
		return Classification{}
	}

	tokens := tokenize(lower)
	if len(tokens) > 0 && tokens[0] == "create" {
		return Classification{IsChartRequest: true, Rule: RuleCreatePrefix}
	}

	normalized := strings.Join(tokens, " ")
	for _, phrase := range chartPhrases {
		if strings.Contains(normalized, phrase) {
			return Classification{IsChartRequest: true, Rule: RuleChartPhrase}
		}
	}

	for _, phrase := range chartNounPhrases {
		if strings.Contains(normalized, phrase) {
			return Classification{IsChartRequest: true, Rule: RuleChartNoun}
		}
	}
	for _, tok := range tokens {
		if chartNouns[tok] {
			return Classification{IsChartRequest: true, Rule: RuleChartNoun}
		}
	}

	if anyTokenContains(tokens, visualizationKeywords) &&
		anyTokenContains(tokens, domainTerms) &&
		anyTokenIn(tokens, relationalTerms) {
		return Classification{IsChartRequest: true, Rule: RuleKeywordConjunction}
	}

	return Classification{}
}

// IsChartRequest is a convenience wrapper over Classify.
func IsChartRequest(utterance string) bool {
	return Classify(utterance).IsChartRequest
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func anyTokenContains(tokens []string, keywords []string) bool {
	for _, tok := range tokens {
		for _, kw := range keywords {
			if strings.Contains(tok, kw) {
				return true
			}
		}
	}
	return false
}

func anyTokenIn(tokens []string, set map[string]bool) bool {
	for _, tok := range tokens {
		if set[tok] {
			return true
		}
	}
	return false
}
