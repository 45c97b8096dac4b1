package intent

import (
	"context"
	"regexp"
	"strings"
)

// Result names the specialist a user turn should route to. An empty
// Specialist means the orchestrator handles the turn itself.
type Result struct {
	Specialist string  `json:"specialist"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Detector maps a user utterance (plus recent context) to a routing result.
type Detector interface {
	Detect(ctx context.Context, utterance string, history []string) (Result, error)
}

type pattern struct {
	specialist string
	re         *regexp.Regexp
}

// Order matters: earlier patterns win. Story requests outrank everything
// because words like "remind" can appear inside a story request.
var patterns = []pattern{
	{"story", regexp.MustCompile(`(?i)\b(story|stories|tale|tales)\b`)},
	{"medication", regexp.MustCompile(`(?i)\b(medication|medications|medicine|pill|pills|dose|doses|refill|prescription)\b`)},
	{"backlog", regexp.MustCompile(`(?i)\b(remind|reminder|reminders|schedule|appointment|task|todo)\b`)},
	{"health", regexp.MustCompile(`(?i)\b(health|blood pressure|heart rate|steps|sleep|vitals|feeling|wellness)\b`)},
	{"settings", regexp.MustCompile(`(?i)\b(fall detection|sensitivity|location tracking|settings|configure)\b`)},
	{"memory", regexp.MustCompile(`(?i)\b(remember|memory|memories|recall)\b`)},
}

// RegexDetector routes on keyword patterns. It is the zero-dependency
// fallback and the baseline the LLM detector degrades to.
type RegexDetector struct{}

// NewRegexDetector creates a regex-based detector.
func NewRegexDetector() *RegexDetector {
	return &RegexDetector{}
}

// Detect matches the utterance against the routing patterns.
func (d *RegexDetector) Detect(_ context.Context, utterance string, _ []string) (Result, error) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return Result{}, nil
	}

	for _, p := range patterns {
		if p.re.MatchString(text) {
			return Result{
				Specialist: p.specialist,
				Confidence: 0.6,
				Reason:     "keyword match",
			}, nil
		}
	}
	return Result{}, nil
}
