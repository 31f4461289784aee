package prompt

import (
	"strings"
	"testing"
)

func TestBuildSwapPromptDeterministic(t *testing.T) {
	spec := SwapSpec{
		PreserveFace:       true,
		PreserveLighting:   true,
		PreserveBackground: true,
		Refinements:        "make the sleeves longer",
		HasGuidanceImage:   true,
	}
	first := BuildSwapPrompt(spec)
	for i := 0; i < 5; i++ {
		if got := BuildSwapPrompt(spec); got != first {
			t.Fatalf("prompt diverged on call %d", i+2)
		}
	}
}

func TestBuildSwapPromptPreserveFlags(t *testing.T) {
	const (
		faceLine       = "The model's face"
		lightingLine   = "The lighting"
		backgroundLine = "The background"
		poseLine       = "The model's pose"
	)
	for _, tc := range []struct{ face, lighting, background bool }{
		{false, false, false},
		{false, false, true},
		{false, true, false},
		{false, true, true},
		{true, false, false},
		{true, false, true},
		{true, true, false},
		{true, true, true},
	} {
		got := BuildSwapPrompt(SwapSpec{
			PreserveFace:       tc.face,
			PreserveLighting:   tc.lighting,
			PreserveBackground: tc.background,
		})
		if strings.Contains(got, faceLine) != tc.face {
			t.Fatalf("face line presence mismatch for %+v", tc)
		}
		if strings.Contains(got, lightingLine) != tc.lighting {
			t.Fatalf("lighting line presence mismatch for %+v", tc)
		}
		if strings.Contains(got, backgroundLine) != tc.background {
			t.Fatalf("background line presence mismatch for %+v", tc)
		}
		if !strings.Contains(got, poseLine) {
			t.Fatalf("pose line must always be present, missing for %+v", tc)
		}
	}
}

func TestBuildSwapPromptStripsComments(t *testing.T) {
	got := BuildSwapPrompt(SwapSpec{
		Refinements: "# note\nmake it longer\n\n# more notes",
	})
	if !strings.Contains(got, "make it longer") {
		t.Fatalf("refinement line missing from prompt:\n%s", got)
	}
	if strings.Contains(got, "# note") || strings.Contains(got, "# more notes") {
		t.Fatalf("comment lines leaked into prompt:\n%s", got)
	}
	if !strings.Contains(got, "ADDITIONAL REFINEMENTS:") {
		t.Fatalf("refinement heading missing:\n%s", got)
	}
}

func TestBuildSwapPromptCommentOnlyRefinements(t *testing.T) {
	got := BuildSwapPrompt(SwapSpec{Refinements: "# only a comment\n\n# another"})
	if strings.Contains(got, "ADDITIONAL REFINEMENTS:") {
		t.Fatalf("heading must be absent when refinements clean to empty:\n%s", got)
	}
}

func TestBuildSwapPromptTruncatesRefinements(t *testing.T) {
	long := strings.Repeat("x", 150)
	got := BuildSwapPrompt(SwapSpec{Refinements: long, MaxRefinementLen: 100})
	if strings.Contains(got, strings.Repeat("x", 101)) {
		t.Fatal("refinement text exceeds the configured cap")
	}
	if !strings.Contains(got, strings.Repeat("x", 100)) {
		t.Fatal("truncated refinement text missing from prompt")
	}
	// Truncation must not bite into the surrounding template.
	if !strings.HasSuffix(got, strings.Repeat("x", 100)) {
		t.Fatalf("refinement block no longer terminates the prompt:\n%s", got)
	}
	if !strings.Contains(got, "Output: Professional fashion photography quality, sharp focus.") {
		t.Fatal("quality directive corrupted by truncation")
	}
}

func TestBuildSwapPromptGuidanceMerge(t *testing.T) {
	withBoth := BuildSwapPrompt(SwapSpec{Refinements: "soften shadows", HasGuidanceImage: true})
	if !strings.Contains(withBoth, "Apply these refinement instructions to guide the generation:") {
		t.Fatalf("combined guidance note missing:\n%s", withBoth)
	}
	if strings.Contains(withBoth, "ADDITIONAL REFINEMENTS:") {
		t.Fatalf("separate refinement heading must be merged away:\n%s", withBoth)
	}
	if !strings.Contains(withBoth, "soften shadows") {
		t.Fatalf("refinement text missing:\n%s", withBoth)
	}

	guidanceOnly := BuildSwapPrompt(SwapSpec{HasGuidanceImage: true})
	if !strings.Contains(guidanceOnly, "Use it as additional guidance for the generation.") {
		t.Fatalf("guidance-only note missing:\n%s", guidanceOnly)
	}
}

func TestBuildStyleVariantPrompt(t *testing.T) {
	plain := BuildStyleVariantPrompt("")
	if !strings.Contains(plain, "rotate the body or head by 5-15 degrees") {
		t.Fatalf("pose perturbation bound missing:\n%s", plain)
	}
	if strings.Contains(plain, "ADDITIONAL CUSTOM INSTRUCTIONS:") {
		t.Fatal("custom heading must be absent without instructions")
	}

	custom := BuildStyleVariantPrompt("  blue eyes, short hair  ")
	if !strings.Contains(custom, "ADDITIONAL CUSTOM INSTRUCTIONS:\nblue eyes, short hair") {
		t.Fatalf("custom instructions not appended verbatim:\n%s", custom)
	}
}

func TestCleanRefinements(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"comments and blanks", "# a\n\nkeep this\n#b\n", "keep this"},
		{"indented comment", "   # hidden\nline one\nline two", "line one\nline two"},
		{"whitespace only", "  \n\t\n", ""},
	} {
		if got := CleanRefinements(tc.in); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
