package scenario

import (
	"bytes"
	"math"
	"strconv"

	"github.com/iwvelando/realestate-model/pkg/format"
)

// Ratio is a percentage that may be undefined. An undefined ratio is +Inf.
type Ratio float64

// Undefined is the ratio of a value over a zero or negative base.
var Undefined = Ratio(math.Inf(1))

// Defined reports whether the ratio has a finite value.
func (r Ratio) Defined() bool {
	return !math.IsInf(float64(r), 0) && !math.IsNaN(float64(r))
}

// String renders the ratio as a percentage, or N/A.
func (r Ratio) String() string {
	return format.Percent(float64(r))
}

// MarshalJSON encodes an undefined ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(r), 'f', -1, 64), nil
}

// UnmarshalJSON decodes null as an undefined ratio.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Undefined
		return nil
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil {
		return err
	}
	*r = Ratio(v)
	return nil
}

// MarshalYAML encodes an undefined ratio as null.
func (r Ratio) MarshalYAML() (interface{}, error) {
	if !r.Defined() {
		return nil, nil
	}
	return float64(r), nil
}

func (r Ratio) sub(other Ratio) Ratio {
	if !r.Defined() || !other.Defined() {
		return Undefined
	}
	return r - other
}
