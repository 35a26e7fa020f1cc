package canvas

import (
	"regexp"
	"strings"

	"lean_canvas_coach/generator"
)

var wrappingFence = regexp.MustCompile("(?s)^(`{3,})[ \t]*(?:markdown|md)?[ \t]*\n(.*)\n(`{3,})$")

// PostProcess normalises a model answer before it is stored.
// A response that is empty after trimming is a failed generation.
func PostProcess(raw string) (string, error) {
	md := strings.TrimSpace(raw)
	if m := wrappingFence.FindStringSubmatch(md); m != nil && m[1] == m[3] && !closesFence(m[2], len(m[1])) {
		md = strings.TrimSpace(m[2])
	}
	if md == "" {
		return "", generator.NewError(generator.KindUnknown, "model returned empty markdown", nil)
	}
	return md, nil
}

// closesFence reports whether body has a bare fence line of at least n
// backticks. Such a line ends the opening fence early, so the answer is
// several blocks rather than one wrapped document.
func closesFence(body string, n int) bool {
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		if len(t) >= n && strings.Trim(t, "`") == "" {
			return true
		}
	}
	return false
}

// Headline returns the first heading or bold header of md, falling back
// to the opening words. Used for activity-log summaries.
func Headline(md string, limit int) string {
	for _, line := range strings.Split(md, "\n") {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "#"):
			return clip(strings.TrimSpace(strings.TrimLeft(t, "#")), limit)
		case strings.HasPrefix(t, "**"):
			rest := t[2:]
			if i := strings.Index(rest, "**"); i >= 0 {
				rest = rest[:i]
			}
			return clip(strings.TrimRight(strings.TrimSpace(rest), ":"), limit)
		}
	}
	return clip(strings.Join(strings.Fields(md), " "), limit)
}

func clip(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
