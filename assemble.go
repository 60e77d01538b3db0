package omega

import (
	"strings"

	"github.com/omegalang/omega/script"
)

// sectionSeparator joins section contents in the final output.
const sectionSeparator = "\n\n"

// assemble concatenates section contents strictly in declaration order,
// independent of the order they were generated in. A section that ended up
// empty is skipped with a warning; backend output is otherwise treated as
// opaque text.
func assemble(s *script.Script) (string, []string) {
	var warnings []string
	parts := make([]string, 0, len(s.Sections))

	for _, sec := range s.Sections {
		content := strings.TrimSpace(sec.Content)
		if content == "" {
			warnings = append(warnings, "section "+sec.Symbol+" produced no content")
			continue
		}
		parts = append(parts, content)
	}

	return strings.Join(parts, sectionSeparator), warnings
}
