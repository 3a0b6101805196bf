package filters

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSpread is returned for spread specifications that cannot be parsed.
var ErrInvalidSpread = errors.New("invalid spread specification")

// Spread is a structuring element size plus an iteration count. Rows is the
// vertical extent and Cols the horizontal one, so "(3, 5)" grows a point into
// a 3 row by 5 column block.
type Spread struct {
	Rows       int
	Cols       int
	Iterations int
}

// IsIdentity reports whether a filter built from s leaves its input unchanged.
func (s Spread) IsIdentity() bool {
	return s.Rows < 1 || s.Cols < 1 || s.Iterations < 1
}

func (s Spread) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Rows, s.Cols, s.Iterations)
}

// ParseSpread reads "(rows, cols)" or "(rows, cols, iterations)". Iterations
// default to 1. The enclosing parentheses or brackets are optional but must
// match. Values are separated either by commas or by whitespace.
func ParseSpread(text string) (Spread, error) {
	body, err := unwrapSpread(strings.TrimSpace(text))
	if err != nil {
		return Spread{}, fmt.Errorf("%w: %q: %v", ErrInvalidSpread, text, err)
	}

	var fields []string
	if strings.Contains(body, ",") {
		fields = strings.Split(body, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
			if fields[i] == "" {
				return Spread{}, fmt.Errorf("%w: %q has an empty value", ErrInvalidSpread, text)
			}
		}
	} else {
		fields = strings.Fields(body)
	}
	if len(fields) < 2 || len(fields) > 3 {
		return Spread{}, fmt.Errorf("%w: %q needs 2 or 3 values", ErrInvalidSpread, text)
	}

	values := []int{1, 1, 1}
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return Spread{}, fmt.Errorf("%w: %q: %v", ErrInvalidSpread, text, err)
		}
		values[i] = v
	}

	return Spread{Rows: values[0], Cols: values[1], Iterations: values[2]}, nil
}

var spreadBrackets = map[byte]byte{'(': ')', '[': ']'}

func unwrapSpread(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	first, last := text[0], text[len(text)-1]
	closing, opened := spreadBrackets[first]
	closed := last == ')' || last == ']'

	switch {
	case opened && len(text) > 1 && last == closing:
		return text[1 : len(text)-1], nil
	case opened || closed:
		return "", errors.New("unbalanced brackets")
	default:
		return text, nil
	}
}
