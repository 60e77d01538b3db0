package omega

import (
	"strings"
	"testing"

	"github.com/omegalang/omega/script"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"92", 92, false},
		{"92\nWell structured and complete.", 92, false},
		{"Score: 85 because the text is thorough.", 85, false},
		{"I'd say 100.", 100, false},
		{"0", 0, false},
		{"150 is out of range but 80 fits", 80, false},
		{"no numbers at all", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseScore(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseScore(%q) = %d, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseScore(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseScore(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSectionPromptComposition(t *testing.T) {
	s, err := script.Parse(`
Write a launch announcement.

DEFINE_SYMBOLS{
	@HEAD="Headline" [short and punchy],
	@BODY="Body"
}
MEM_GRAPH{@BODY -> [@HEAD]}
WR_SECT(@HEAD, d="State the headline.")
WR_SECT(@BODY, t="Details", d="Expand on the headline.")
`)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}

	prompt := sectionPrompt(s, s.Section("@BODY"), map[string]string{"@HEAD": "We shipped."})

	for _, want := range []string{
		"Write a launch announcement.",
		"@BODY",
		"Details",
		"Expand on the headline.",
		"@HEAD",
		"We shipped.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSectionPromptSkipsUngeneratedDependency(t *testing.T) {
	s, err := script.Parse(`
DEFINE_SYMBOLS{@A="A", @B="B"}
MEM_GRAPH{@A -> [@B]}
WR_SECT(@A, d="a")
`)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}

	// @B has no section and no content; its slot must not appear.
	prompt := sectionPrompt(s, s.Section("@A"), map[string]string{})
	if strings.Contains(prompt, "[@B") {
		t.Errorf("prompt includes an absent dependency:\n%s", prompt)
	}
}

func TestCorrectionPromptCarriesErrors(t *testing.T) {
	errs := script.Validate(`WR_SECT(@GHOST, d="boo")`)
	if len(errs) == 0 {
		t.Fatal("expected validation errors")
	}

	prompt := correctionPrompt(`WR_SECT(@GHOST, d="boo")`, errs)
	if !strings.Contains(prompt, "@GHOST") {
		t.Errorf("prompt missing the script text:\n%s", prompt)
	}
	for _, e := range errs {
		if !strings.Contains(prompt, e.Message) {
			t.Errorf("prompt missing error %q", e.Message)
		}
	}
}
