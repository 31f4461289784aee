// Package prompt assembles the text prompts sent alongside the images. All
// builders are deterministic: the same spec always yields a byte-identical
// prompt, which is what makes the generation pipeline testable.
package prompt

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultRefinementMaxLen bounds refinement text when a SwapSpec sets no cap
// of its own. Long refinements inflate the request and raise the empty-
// response rate.
const DefaultRefinementMaxLen = 2000

const swapTask = `TASK: You have images - (1) a photo of a model, (2) a flat-lay photo of a garment.
Replace ONLY the clothing on the model with the garment from the flat-lay image.
Everything else in the image must remain identical.`

const swapReplace = `ONLY CHANGE: The garment. Replace the model's current clothing with the garment from the flat-lay image.

CRITICAL: The garment from the flat-lay must NOT be modified in any way when transferring to the model.
- Use the garment EXACTLY as shown in the flat-lay image
- Same color, same texture, same patterns, same knit structure, same buttons/details
- Do not alter, adjust, or modify the garment's appearance
- Do not change colors, textures, or patterns
- The garment should fit the model's body naturally, but its visual appearance (color, texture, patterns, details) must match the flat-lay image exactly without any modifications.`

// SwapSpec carries the structured intent for a garment-swap prompt.
type SwapSpec struct {
	PreserveFace       bool
	PreserveLighting   bool
	PreserveBackground bool

	// Refinements is free-form user text appended under its own heading.
	// Full-line comments ("# ...") and blank lines are stripped, and the
	// remainder is truncated at MaxRefinementLen.
	Refinements string

	// HasGuidanceImage notes that a third image accompanies the request, so
	// the prompt must tell the model how to use it.
	HasGuidanceImage bool

	// MaxRefinementLen overrides DefaultRefinementMaxLen when positive.
	MaxRefinementLen int
}

// BuildSwapPrompt produces the garment-swap prompt for the given spec.
func BuildSwapPrompt(spec SwapSpec) string {
	var preserve []string
	if spec.PreserveFace {
		preserve = append(preserve, "DO NOT CHANGE: The model's face - keep it identical (same features, expression, skin tone, hair, makeup).")
	}
	// The pose line is unconditional; letting the model move the body defeats
	// the garment transfer.
	preserve = append(preserve, "DO NOT CHANGE: The model's pose, body, proportions, posture, position, or stance.")
	if spec.PreserveLighting {
		preserve = append(preserve, "DO NOT CHANGE: The lighting - keep it identical (same direction, intensity, shadows, highlights).")
	}
	if spec.PreserveBackground {
		preserve = append(preserve, "DO NOT CHANGE: The background - keep it identical.")
	}

	lines := []string{swapTask, "", "PRESERVE (keep identical):"}
	lines = append(lines, preserve...)
	lines = append(lines, "", "REPLACE (change this only):", swapReplace, "")
	lines = append(lines, "Output: Professional fashion photography quality, sharp focus.")

	out := strings.Join(lines, "\n")

	refinements := CleanRefinements(spec.Refinements)
	maxLen := spec.MaxRefinementLen
	if maxLen <= 0 {
		maxLen = DefaultRefinementMaxLen
	}
	if len(refinements) > maxLen {
		log.Warn().
			Int("length", len(refinements)).
			Int("max", maxLen).
			Msg("refinement text truncated")
		refinements = refinements[:maxLen]
	}

	switch {
	case refinements != "" && spec.HasGuidanceImage:
		// A single combined note; a separate guidance note on top of the
		// refinement heading reads as two conflicting instructions.
		out += "\n\nNOTE: An additional image is provided for guidance. Apply these refinement instructions to guide the generation:\n" + refinements
	case refinements != "":
		out += "\n\nADDITIONAL REFINEMENTS:\n" + refinements
	case spec.HasGuidanceImage:
		out += "\n\nNOTE: An additional image is provided. Use it as additional guidance for the generation."
	}

	return out
}

// BuildStyleVariantPrompt produces the prompt for the secondary flow: keep the
// photograph's styling but swap in a different face and nudge the pose.
func BuildStyleVariantPrompt(customInstructions string) string {
	out := `TASK: Modify this fashion model photograph by changing the face and adjusting the pose slightly.

REQUIREMENTS:
- CHANGE: Replace the face with a completely different face (photorealistic, professional)
- CHANGE: Adjust the pose slightly - rotate the body or head by 5-15 degrees, or shift the arm/hand position subtly
- KEEP: Same body type and proportions
- KEEP: Same lighting style and background style
- KEEP: Same clothing and overall aesthetic
- KEEP: Professional fashion photography quality

The result should look like a different person in a similar (but not identical) pose, maintaining the same professional fashion photography style.`

	if custom := strings.TrimSpace(customInstructions); custom != "" {
		out += "\n\nADDITIONAL CUSTOM INSTRUCTIONS:\n" + custom
	}

	out += "\n\nOutput: Modified fashion model photo with different face and slightly adjusted pose."
	return out
}

// CleanRefinements strips full-line comments and blank lines from user
// refinement text.
func CleanRefinements(raw string) string {
	if raw == "" {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
