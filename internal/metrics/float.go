package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Float is a float64 that may be undefined (NaN) or unbounded (±Inf).
// JSON has no literal for either, so NaN encodes as null and infinities as
// the strings "+Inf" and "-Inf".
type Float float64

func Undefined() Float { return Float(math.NaN()) }

func (f Float) Defined() bool { return !math.IsNaN(float64(f)) }

func (f Float) String() string {
	if !f.Defined() {
		return "undefined"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "null":
		*f = Undefined()
		return nil
	case `"+Inf"`, `"Inf"`:
		*f = Float(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = Float(math.Inf(-1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decoding float: %w", err)
	}
	*f = Float(v)
	return nil
}
