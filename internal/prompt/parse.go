package prompt

import (
	"regexp"
	"strings"
)

const (
	KeyAssumptionsHeading = "Key Assumptions"
	ResponseHeading       = "Response"
)

// FinalAnswer is the structured form of a final-synthesis reply.
type FinalAnswer struct {
	KeyAssumptions string `json:"keyAssumptions"`
	Response       string `json:"response"`
}

// Complete reports whether both sections were found.
func (a FinalAnswer) Complete() bool {
	return a.KeyAssumptions != "" && a.Response != ""
}

var (
	// The final-synthesis prompt numbers the sections, so a "2." may precede the
	// Response heading.
	boldAssumptionsRe = regexp.MustCompile(`(?is)\*\*Key Assumptions\*\*:?(.*?)(?:(?:\s*\d+\.)?\s*\*\*Response\*\*|$)`)
	boldResponseRe    = regexp.MustCompile(`(?is)\*\*Response\*\*:?(.*)$`)

	plainAssumptionsRe = regexp.MustCompile(`(?is)Key Assumptions:(.*?)(?:(?m:^)\s*(?:\d+\.\s*)?Response:|$)`)
	plainResponseRe    = regexp.MustCompile(`(?is)(?m:^)\s*(?:\d+\.\s*)?Response:(.*)$`)
)

// ParseFinalAnswer splits a final-synthesis reply into its two sections.
// Both the markdown-bold headings the prompt asks for and plain "Heading:"
// lines are accepted. ok is false when the text carries neither heading.
func ParseFinalAnswer(text string) (FinalAnswer, bool) {
	if strings.Contains(text, "**"+KeyAssumptionsHeading+"**") || strings.Contains(text, "**"+ResponseHeading+"**") {
		return FinalAnswer{
			KeyAssumptions: submatch(boldAssumptionsRe, text),
			Response:       submatch(boldResponseRe, text),
		}, true
	}
	if strings.Contains(text, KeyAssumptionsHeading+":") || strings.Contains(text, ResponseHeading+":") {
		return FinalAnswer{
			KeyAssumptions: submatch(plainAssumptionsRe, text),
			Response:       submatch(plainResponseRe, text),
		}, true
	}
	return FinalAnswer{}, false
}

func submatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Impact is the loosely parsed "Degree of Impact" of an evaluation.
type Impact string

const (
	ImpactCritical Impact = "Critical"
	ImpactHigh     Impact = "High"
	ImpactModerate Impact = "Moderate"
	ImpactLow      Impact = "Low"
	ImpactNone     Impact = "N/A"
	ImpactUnknown  Impact = ""
)

var impactRe = regexp.MustCompile(`(?i)Degree of Impact\**\s*:?\s*\**\s*\[?\s*(Critical|High|Moderate|Low|N/?A)`)

// ParseImpact returns the most severe impact mentioned in an evaluation.
// Evaluations that state NoConflicts without an impact line map to ImpactNone.
func ParseImpact(text string) Impact {
	best := ImpactUnknown
	for _, m := range impactRe.FindAllStringSubmatch(text, -1) {
		if got := normalizeImpact(m[1]); rank(got) > rank(best) {
			best = got
		}
	}
	if best == ImpactUnknown && strings.Contains(strings.ToLower(text), "no significant conflicts") {
		return ImpactNone
	}
	return best
}

func normalizeImpact(raw string) Impact {
	switch strings.ToLower(strings.ReplaceAll(raw, "/", "")) {
	case "critical":
		return ImpactCritical
	case "high":
		return ImpactHigh
	case "moderate":
		return ImpactModerate
	case "low":
		return ImpactLow
	case "na":
		return ImpactNone
	}
	return ImpactUnknown
}

func rank(i Impact) int {
	switch i {
	case ImpactCritical:
		return 5
	case ImpactHigh:
		return 4
	case ImpactModerate:
		return 3
	case ImpactLow:
		return 2
	case ImpactNone:
		return 1
	}
	return 0
}
