package scoring

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	techVocabulary = regexp.MustCompile(`(?i)\b(function|async|await|promise|callback|closure|api|database|query|index|cache|algorithm|complexity|thread|concurrency|memory|performance|component|state|hook|server|client|http|rest|graphql|schema|container|docker|kubernetes|pipeline|deployment|architecture|interface|stream|event loop|middleware)\b`)
	exemplifying   = regexp.MustCompile(`(?i)\b(examples?|for instance|such as|like)\b`)
	connectives    = regexp.MustCompile(`(?i)\b(first|second|third|finally|however|therefore|additionally|moreover|furthermore|in summary|because)\b`)
	hedges         = regexp.MustCompile(`(?i)\b(maybe|perhaps|might|i think|not sure|i guess|probably|possibly)\b`)
	assertives     = regexp.MustCompile(`(?i)\b(definitely|certainly|always|never|must|clearly|absolutely)\b`)
	sentenceBreak  = regexp.MustCompile(`[.!?]+`)
)

// Heuristic scores an answer from its surface features alone. It is
// deterministic: the same text always yields the same scores.
func Heuristic(answer string) Scores {
	length := utf8.RuneCountInString(answer)

	tech := 5.0
	if length > 300 {
		tech += 1.5
	}
	if techVocabulary.MatchString(answer) {
		tech += 1.5
	}
	if strings.Contains(answer, "`") {
		tech += 1
	}
	if exemplifying.MatchString(answer) {
		tech += 1
	}

	clarity := 5.0
	if wps := wordsPerSentence(answer); wps >= 10 && wps <= 25 {
		clarity += 1.5
	}
	if connectives.MatchString(answer) {
		clarity += 1.5
	}
	if length > 200 {
		clarity += 1
	}

	confidence := 6.0
	confidence -= 0.5 * float64(len(hedges.FindAllStringIndex(answer, -1)))
	confidence += 0.3 * float64(len(assertives.FindAllStringIndex(answer, -1)))
	if length > 250 {
		confidence += 0.5
	}

	return Scores{
		TechnicalDepth: clamp(tech),
		Clarity:        clamp(clarity),
		Confidence:     clamp(confidence),
		Source:         SourceHeuristic,
	}
}

// wordsPerSentence averages word counts over non-empty sentences.
func wordsPerSentence(text string) float64 {
	var words, sentences int
	for _, s := range sentenceBreak.Split(text, -1) {
		n := len(strings.Fields(s))
		if n == 0 {
			continue
		}
		words += n
		sentences++
	}
	if sentences == 0 {
		return 0
	}
	return float64(words) / float64(sentences)
}
