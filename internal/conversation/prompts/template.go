// Package prompts turns conversation state into the persona prompt and the
// per-step prompt handed to the text generation backend.
package prompts

import (
	"regexp"
	"sort"
)

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Template is step copy with named {placeholders}.
type Template struct {
	Text     string
	Required []string
}

// Placeholders lists the distinct variable names used in the text.
func (t Template) Placeholders() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Render fills the placeholders from vars. When any required or referenced
// variable has no value the raw text is returned together with the missing names.
func (t Template) Render(vars map[string]string) (string, []string) {
	missing := map[string]bool{}
	for _, name := range t.Required {
		if _, ok := vars[name]; !ok {
			missing[name] = true
		}
	}
	for _, name := range t.Placeholders() {
		if _, ok := vars[name]; !ok {
			missing[name] = true
		}
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return t.Text, names
	}

	return placeholderPattern.ReplaceAllStringFunc(t.Text, func(m string) string {
		return vars[m[1:len(m)-1]]
	}), nil
}
