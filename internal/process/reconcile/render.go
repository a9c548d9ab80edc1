package reconcile

import (
	"fmt"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// maxListedObjects is the largest object list rendered in full; above it a
// group collapses to a count with a pluralized unit noun.
const maxListedObjects = 5

// unitForms are the Russian cardinal forms of the counted unit (building).
var unitForms = map[plural.Form]string{
	plural.One:  "дом",
	plural.Few:  "дома",
	plural.Many: "домов",
}

// RenderGroups renders groups into report lines, one line per group.
func RenderGroups(groups []Group) []string {
	lines := make([]string, len(groups))

	for i, g := range groups {
		lines[i] = renderGroup(g)
	}

	return lines
}

func renderGroup(g Group) string {
	line := g.Prefix

	switch {
	case len(g.Objects) > maxListedObjects:
		line += fmt.Sprintf(": %d %s", len(g.Objects), pluralUnit(len(g.Objects)))
	case len(g.Objects) > 0:
		line += ": " + strings.Join(sortedObjects(g.Objects), ", ")
	}

	if g.Resolved {
		line = "<s>" + line + "</s>"
	}

	return line
}

// pluralUnit picks the grammatically correct unit noun for n.
func pluralUnit(n int) string {
	form := plural.Cardinal.MatchPlural(language.Russian, n, 0, 0, 0, 0)

	if unit, ok := unitForms[form]; ok {
		return unit
	}

	return unitForms[plural.Many]
}
