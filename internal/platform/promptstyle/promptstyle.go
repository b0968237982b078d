package promptstyle

import "strings"

const marker = "FITCOACH_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to system prompts.
// Applying it twice is a no-op.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are a careful strength and nutrition coaching assistant.")
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nPrefer safe, beginner-appropriate guidance; never recommend extreme diets or dangerous loads.")
	if mode == "json" {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
		b.WriteString("\nUse plain numbers for numeric fields, without units.")
	} else {
		b.WriteString("\nKeep replies short, encouraging and practical.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
