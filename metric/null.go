package metric

import (
	"encoding/json"
	"math"
)

// NullFloat64 is a float64 that may be absent. Absent values encode as JSON null.
type NullFloat64 struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid NullFloat64, or an absent one for NaN and infinities.
func Float(v float64) NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat64{}
	}
	return NullFloat64{Float64: v, Valid: true}
}

// Round returns the value rounded to the given number of decimals.
func (n NullFloat64) Round(decimals int) NullFloat64 {
	if !n.Valid {
		return n
	}
	p := math.Pow(10, float64(decimals))
	return NullFloat64{Float64: math.Round(n.Float64*p) / p, Valid: true}
}

func (n NullFloat64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat64) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat64{}
		return nil
	}
	n.Valid = true
	return json.Unmarshal(b, &n.Float64)
}

// NullInt is an int that may be absent. Absent values encode as JSON null.
type NullInt struct {
	Int   int
	Valid bool
}

// Int returns a valid NullInt.
func Int(v int) NullInt {
	return NullInt{Int: v, Valid: true}
}

func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int)
}

func (n *NullInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullInt{}
		return nil
	}
	n.Valid = true
	return json.Unmarshal(b, &n.Int)
}
