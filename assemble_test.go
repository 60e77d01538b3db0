package omega

import (
	"strings"
	"testing"

	"github.com/omegalang/omega/script"
)

func parseForAssembly(t *testing.T, src string, contents map[string]string) *script.Script {
	t.Helper()
	s, err := script.Parse(src)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	for tok, content := range contents {
		s.Section(tok).Content = content
	}
	return s
}

func TestAssembleDeclarationOrder(t *testing.T) {
	// @B would generate before @A, assembly still follows declaration.
	s := parseForAssembly(t, `
DEFINE_SYMBOLS{@A="A", @B="B"}
MEM_GRAPH{@A -> [@B]}
WR_SECT(@A, d="a")
WR_SECT(@B, d="b")
`, map[string]string{"@A": "alpha", "@B": "beta"})

	text, warnings := assemble(s)
	if text != "alpha"+sectionSeparator+"beta" {
		t.Errorf("text = %q", text)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestAssembleTrimsContent(t *testing.T) {
	s := parseForAssembly(t, `
DEFINE_SYMBOLS{@A="A"}
WR_SECT(@A, d="a")
`, map[string]string{"@A": "\n  alpha  \n"})

	text, _ := assemble(s)
	if text != "alpha" {
		t.Errorf("text = %q, want %q", text, "alpha")
	}
}

func TestAssembleSkipsEmptySectionWithWarning(t *testing.T) {
	s := parseForAssembly(t, `
DEFINE_SYMBOLS{@A="A", @B="B", @C="C"}
WR_SECT(@A, d="a")
WR_SECT(@B, d="b")
WR_SECT(@C, d="c")
`, map[string]string{"@A": "alpha", "@B": "   ", "@C": "gamma"})

	text, warnings := assemble(s)
	if text != "alpha"+sectionSeparator+"gamma" {
		t.Errorf("text = %q", text)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "@B") {
		t.Errorf("warnings = %v, want one naming @B", warnings)
	}
}

func TestAssembleOpaqueContent(t *testing.T) {
	// Backend output that happens to look like script text passes through
	// untouched.
	payload := `WR_SECT(@A, d="not a directive, just text")`
	s := parseForAssembly(t, `
DEFINE_SYMBOLS{@A="A"}
WR_SECT(@A, d="a")
`, map[string]string{"@A": payload})

	text, _ := assemble(s)
	if text != payload {
		t.Errorf("text = %q, want the untouched payload", text)
	}
}
