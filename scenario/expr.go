package scenario

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// expr is a parsed randomization expression: a single reference to a named
// distribution with positional and keyword arguments, written in a template
// leaf as
//
//	mass: "${gaussian: 0.0, 1.0}"
//	steps: "${discrete: 1, 5, endpoint=false}"
//	joints: "${gaussian_2d: [0.0, 10.0], 1.0}"
//	color: "${categorical: [red, green, blue], weights=[0.5, 0.25, 0.25]}"
//
// In YAML sources the leaf must be quoted: the ": " inside the expression
// would otherwise read as a nested mapping and fail the document parse.
// Argument scalars and vectors use YAML syntax. The distribution name is
// not checked here; unknown names surface as catalog errors during
// resolution, with the node path attached.
type expr struct {
	name   string
	args   []any
	kwargs map[string]any
	raw    string
}

var (
	exprPattern  = regexp.MustCompile(`(?s)^\$\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*:(.*)\}$`)
	kwargPattern = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_]*)\s*=(.*)$`)
)

// parseExpr recognizes and parses a randomization expression. Strings that
// do not have the ${name: ...} form are not expressions and remain literal
// leaf values; for those it returns (nil, false, nil).
func parseExpr(s string) (*expr, bool, error) {
	m := exprPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, false, nil
	}
	e := &expr{name: m[1], raw: s}
	for _, field := range splitTopLevel(m[2]) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if km := kwargPattern.FindStringSubmatch(field); km != nil {
			v, err := parseArgValue(km[2])
			if err != nil {
				return nil, false, fmt.Errorf("expression %q: keyword %s: %w", s, km[1], err)
			}
			if e.kwargs == nil {
				e.kwargs = make(map[string]any)
			}
			if _, dup := e.kwargs[km[1]]; dup {
				return nil, false, fmt.Errorf("expression %q: keyword %s given twice", s, km[1])
			}
			e.kwargs[km[1]] = v
			continue
		}
		if e.kwargs != nil {
			return nil, false, fmt.Errorf("expression %q: positional argument after keyword argument", s)
		}
		v, err := parseArgValue(field)
		if err != nil {
			return nil, false, fmt.Errorf("expression %q: %w", s, err)
		}
		e.args = append(e.args, v)
	}
	return e, true, nil
}

// splitTopLevel splits the argument body on commas that sit outside
// brackets and quotes.
func splitTopLevel(body string) []string {
	var (
		fields []string
		depth  int
		quote  byte
		start  int
	)
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 {
				fields = append(fields, body[start:i])
				start = i + 1
			}
		}
	}
	return append(fields, body[start:])
}

// parseArgValue interprets one argument as a YAML scalar or flow sequence,
// yielding native ints, floats, bools, strings and []any vectors.
func parseArgValue(text string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, fmt.Errorf("malformed argument %q: %w", text, err)
	}
	return v, nil
}
