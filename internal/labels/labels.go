// Package labels describes the semantic classes of a label raster.
package labels

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidOrientation = errors.New("invalid orientation")

// Orientation is the dominant direction of a separator class, stored as a
// unit vector in raster coordinates (x right, y down).
type Orientation struct {
	DX, DY float64
}

var (
	Horizontal = Orientation{DX: 1, DY: 0}
	Vertical   = Orientation{DX: 0, DY: 1}
)

// NewOrientation normalizes (dx, dy) to unit length.
func NewOrientation(dx, dy float64) (Orientation, error) {
	n := math.Hypot(dx, dy)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Orientation{}, fmt.Errorf("%w: (%g, %g)", ErrInvalidOrientation, dx, dy)
	}
	return Orientation{DX: dx / n, DY: dy / n}, nil
}

// IsZero reports whether no orientation was declared.
func (o Orientation) IsZero() bool {
	return o.DX == 0 && o.DY == 0
}

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "H"
	case Vertical:
		return "V"
	default:
		return fmt.Sprintf("(%g, %g)", o.DX, o.DY)
	}
}

func (o Orientation) MarshalJSON() ([]byte, error) {
	switch {
	case o.IsZero():
		return json.Marshal("")
	case o == Horizontal, o == Vertical:
		return json.Marshal(o.String())
	default:
		return json.Marshal([2]float64{o.DX, o.DY})
	}
}

// UnmarshalJSON accepts "H", "V" or a [dx, dy] pair.
func (o *Orientation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch strings.ToUpper(name) {
		case "H", "HORIZONTAL":
			*o = Horizontal
		case "V", "VERTICAL":
			*o = Vertical
		case "":
			*o = Orientation{}
		default:
			return fmt.Errorf("%w: %q", ErrInvalidOrientation, name)
		}
		return nil
	}

	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOrientation, string(data))
	}
	parsed, err := NewOrientation(pair[0], pair[1])
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Class is one semantic class of a prediction.
type Class struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Background  bool        `json:"background,omitempty"`
	Orientation Orientation `json:"orientation"`
}

// Set is the ordered class enumeration of a prediction.
type Set []Class

// Exported returns every non-background class in declaration order.
func (s Set) Exported() []Class {
	out := make([]Class, 0, len(s))
	for _, c := range s {
		if !c.Background {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that ids and names are unique and exactly one class is the
// background.
func (s Set) Validate() error {
	ids := make(map[int]bool, len(s))
	names := make(map[string]bool, len(s))
	backgrounds := 0

	for _, c := range s {
		if c.Name == "" {
			return fmt.Errorf("class %d has no name", c.ID)
		}
		if c.ID < 0 || c.ID > math.MaxUint8 {
			return fmt.Errorf("class %s: id %d outside 8-bit label range", c.Name, c.ID)
		}
		if ids[c.ID] {
			return fmt.Errorf("duplicate class id %d", c.ID)
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate class name %q", c.Name)
		}
		ids[c.ID] = true
		names[c.Name] = true
		if c.Background {
			backgrounds++
		}
	}

	if backgrounds != 1 {
		return fmt.Errorf("expected exactly one background class, got %d", backgrounds)
	}
	return nil
}
