package ai

import (
	"context"
	"encoding/json"
	"strings"

	"fixmyad/internal/util"
)

// ExtractRiskPhrases asks the completion provider for the risky phrases in
// a transcript, using the given compliance system prompt. The call is
// best-effort: any upstream or parse failure degrades to an empty list and
// is logged, never surfaced to the caller.
func ExtractRiskPhrases(ctx context.Context, g TextGenerator, systemPrompt, transcript, fallback string) []string {
	input := strings.TrimSpace(transcript)
	if input == "" {
		input = fallback
	}
	raw, err := g.GenerateText(ctx, systemPrompt, input)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("risk phrase extraction failed", "err", err)
		return []string{}
	}
	return ParseRiskPhrases(raw)
}

// ParseRiskPhrases pulls the first bracket-delimited JSON array out of
// free-text model output. Model replies often wrap the array in prose or
// code fences; anything that does not parse yields an empty list.
func ParseRiskPhrases(raw string) []string {
	start := strings.Index(raw, "[")
	if start < 0 {
		return []string{}
	}
	end := strings.Index(raw[start:], "]")
	if end < 0 {
		return []string{}
	}
	var phrases []string
	if err := json.Unmarshal([]byte(raw[start:start+end+1]), &phrases); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
