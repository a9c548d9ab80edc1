// Package reconcile turns emergency outage lines into grouped, rendered
// report lines.
//
// Source lines look like "HH:MM[..HH:MM] <location>, <object>". Lines sharing
// the same prefix (everything but the trailing object) collapse into one
// group whose objects are rendered as a natural-sorted list, or as a bare
// count once the list gets long. Lines that match no pattern are kept
// verbatim so nothing is ever silently dropped from a report.
package reconcile

import (
	"regexp"

	"github.com/hovq/outage-informer/internal/natsort"
)

// Line is one formatted emergency descriptor entering classification.
type Line struct {
	Text     string
	Resolved bool
}

// Group is a set of lines sharing a prefix, accumulated in input order.
type Group struct {
	Prefix   string
	Objects  []string
	Resolved bool
}

// matcher splits a line into (prefix, object). Matchers are tried in order;
// the first match wins.
type matcher func(line string) (prefix, object string, ok bool)

// The time part, with the optional resolved range, stays inside the prefix so
// resolved and ongoing lines never merge into one group.
var (
	// "18:30 г.Ереван, ул.Абовяна 5" - street-type token glues to the
	// prefix, the short trailing object code becomes the group object.
	streetSuffixRe = regexp.MustCompile(`^(\d{2}:\d{2}(?:\.\.\d{2}:\d{2})? .+?(?:ул\.|пр\.|шоссе|кварт\.)\S*) (.+)$`)

	// "10:15 с.Прошян, насосная станция 2" - trailing numeric or
	// numeric-lettered object code.
	shortCodeRe = regexp.MustCompile(`^(\d{2}:\d{2}(?:\.\.\d{2}:\d{2})? .*[^,]) (\d[\d/а-яА-Я-]*)$`)

	// "09:30 г.Абовян, жилые дома" - generic comma-separated tail.
	commaTailRe = regexp.MustCompile(`^(\d{2}:\d{2}(?:\.\.\d{2}:\d{2})? [^,]+), (.+)$`)
)

var matchers = []matcher{
	matchRegexp(streetSuffixRe),
	matchRegexp(shortCodeRe),
	matchRegexp(commaTailRe),
}

func matchRegexp(re *regexp.Regexp) matcher {
	return func(line string) (string, string, bool) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return "", "", false
		}

		return m[1], m[len(m)-1], true
	}
}

// GroupLines classifies lines in order and merges those sharing a prefix.
// Group order follows first appearance; objects within a group keep
// duplicates and are sorted only at render time.
func GroupLines(lines []Line) []Group {
	var groups []Group

	index := map[string]int{}

	for _, line := range lines {
		prefix, object := classify(line.Text)

		if i, ok := index[prefix]; ok {
			if object != "" {
				groups[i].Objects = append(groups[i].Objects, object)
			}

			continue
		}

		g := Group{Prefix: prefix, Resolved: line.Resolved}
		if object != "" {
			g.Objects = append(g.Objects, object)
		}

		index[prefix] = len(groups)
		groups = append(groups, g)
	}

	return groups
}

// classify runs the matchers in priority order. An unmatched line becomes its
// own singleton group keyed by the full text.
func classify(line string) (prefix, object string) {
	for _, m := range matchers {
		if p, o, ok := m(line); ok {
			return p, o
		}
	}

	return line, ""
}

// sortedObjects returns the group's objects in natural order, so street
// numbers render as "2, 3, 10" rather than "10, 2, 3".
func sortedObjects(objects []string) []string {
	sorted := make([]string, len(objects))
	copy(sorted, objects)
	natsort.Strings(sorted)

	return sorted
}
