// Package prompt renders the natural-language instruction blocks sent to
// the completion provider. Every function here is pure: identical inputs
// produce byte-identical output, and missing optional fields degrade to
// explicit placeholders rather than empty interpolations.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"fixmyad/pkg/domain"
)

// Fixed system-role instructions paired with the composed user prompts.
const (
	SystemCritique   = "You are an expert ad critique assistant."
	SystemStrategist = "You are an expert AI ad strategist."
	SystemCompliance = "You are a compliance assistant. Return only a JSON array of risky phrases found in the ad transcript, with no explanation."
)

// Placeholders for absent optional fields.
const (
	placeholderUnknown   = "unknown"
	placeholderShortForm = "short-form"
)

// FormatLabel normalizes a reported file type to a human-readable ad format.
// MIME-style video types collapse to "video"; anything gif-like to "gif".
func FormatLabel(fileType string) string {
	ft := strings.ToLower(strings.TrimSpace(fileType))
	switch {
	case ft == "":
		return "video"
	case strings.Contains(ft, "gif"):
		return "gif"
	case strings.HasPrefix(ft, "video/"):
		return "video"
	default:
		return ft
	}
}

// DurationLabel renders a duration in seconds, or "short-form" when unknown.
func DurationLabel(seconds float64) string {
	if seconds <= 0 {
		return placeholderShortForm
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64) + " seconds"
}

func orUnknown(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return placeholderUnknown
	}
	return value
}

// Critique composes the initial-critique prompt for one ad.
func Critique(p domain.Personality, prof domain.Profile, ad domain.AdMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s You are an expert in ad critique and optimization.\n\n", p.Description())
	fmt.Fprintf(&b, "This is a %s %s ad for a %s brand.\n", orUnknown(prof.Platform), FormatLabel(ad.FileType), orUnknown(prof.AdType))
	fmt.Fprintf(&b, "The tone of the brand is %q.\n", orUnknown(prof.Tone))
	fmt.Fprintf(&b, "Duration: %s\n", DurationLabel(ad.DurationSeconds))
	fmt.Fprintf(&b, "Transcript:\n%q\n", orUnknown(ad.Transcript))
	if url := strings.TrimSpace(ad.PreviewURL); url != "" {
		fmt.Fprintf(&b, "Preview: %s\n", url)
	}
	b.WriteString("\nReview the ad for structure, engagement, and clarity. Provide:\n")
	b.WriteString("- 3 strengths\n")
	b.WriteString("- 3 weaknesses or red flags (watch for manipulative language, false urgency, exaggerated promises, cultural insensitivity, and a missing call-to-action)\n")
	b.WriteString("- 3 specific, actionable improvements\n")
	b.WriteString("Finish with a line labeled \"Risky phrases:\" followed by a JSON array of any risky phrases quoted from the transcript.\n")
	return b.String()
}

// Revised composes the revised-ad critique prompt.
func Revised(p domain.Personality, prof domain.Profile, ad domain.AdMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s You critique revised ads.\n\n", p.Description())
	b.WriteString("Ad context:\n")
	fmt.Fprintf(&b, "- Platform: %s\n", orUnknown(prof.Platform))
	fmt.Fprintf(&b, "- Brand type: %s\n", orUnknown(prof.AdType))
	fmt.Fprintf(&b, "- Tone: %q\n", orUnknown(prof.Tone))
	fmt.Fprintf(&b, "- Format: %s\n", FormatLabel(ad.FileType))
	fmt.Fprintf(&b, "- Duration: %s\n", DurationLabel(ad.DurationSeconds))
	fmt.Fprintf(&b, "\nTranscript:\n%q\n", orUnknown(ad.Transcript))
	b.WriteString("\nEvaluate the revised ad against the earlier version:\n")
	b.WriteString("- Did it improve over the previous cut?\n")
	b.WriteString("- Name 2-3 concrete improvements and any remaining gaps.\n")
	b.WriteString("- End with two suggestions to finalize the ad.\n")
	b.WriteString("\nBe helpful, encouraging, and constructive.\n")
	return b.String()
}

// Compare composes the A/B comparison prompt for two ads.
func Compare(p domain.Personality, original, revised domain.AdMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s You are an expert ad strategist.\n\n", p.Description())
	b.WriteString("Compare two ads for clarity, engagement, and effectiveness.\n\n")
	writeAdBlock(&b, "Ad A (Original)", original)
	b.WriteString("\n")
	writeAdBlock(&b, "Ad B (Revised)", revised)
	b.WriteString("\nTask:\n")
	b.WriteString("- Compare strengths and weaknesses of each ad\n")
	b.WriteString("- State which ad wins and why\n")
	b.WriteString("- Give two improvement suggestions for the weaker ad\n")
	b.WriteString("\nKeep it sharp, insightful, and based only on the transcript content.\n")
	return b.String()
}

func writeAdBlock(b *strings.Builder, header string, ad domain.AdMeta) {
	fmt.Fprintf(b, "%s\n", header)
	fmt.Fprintf(b, "- File type: %s\n", FormatLabel(ad.FileType))
	fmt.Fprintf(b, "- Duration: %s\n", DurationLabel(ad.DurationSeconds))
	fmt.Fprintf(b, "- Transcript: %q\n", orUnknown(ad.Transcript))
}

// Predict composes the performance-prediction prompt.
func Predict(prof domain.Profile, ad domain.AdMeta) string {
	var b strings.Builder
	b.WriteString("You're an AI ad strategist. Based on the ad transcript, predict how this ad might perform and why. Provide:\n\n")
	b.WriteString("1. Strengths (platform-specific)\n")
	b.WriteString("2. Weaknesses or risks\n")
	b.WriteString("3. Suggestions to improve engagement\n")
	b.WriteString("4. Estimated performance tier: Poor | Moderate | Good | High Potential\n")
	b.WriteString("\nAd context:\n")
	fmt.Fprintf(&b, "- Platform: %s\n", orUnknown(prof.Platform))
	fmt.Fprintf(&b, "- Brand type: %s\n", orUnknown(prof.AdType))
	fmt.Fprintf(&b, "- Tone: %s\n", orUnknown(prof.Tone))
	fmt.Fprintf(&b, "- Duration: %s\n", DurationLabel(ad.DurationSeconds))
	fmt.Fprintf(&b, "\nTranscript:\n%q\n", orUnknown(ad.Transcript))
	b.WriteString("\nRespond as a clear, helpful strategist, not a generic chatbot.\n")
	return b.String()
}

// Followup composes a follow-up question prompt from the prior transcript.
func Followup(p domain.Personality, history []domain.Message, question string) string {
	var b strings.Builder
	b.WriteString(p.Description())
	b.WriteString("\n")
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(&b, "Follow-up question: %s", question)
	return b.String()
}
