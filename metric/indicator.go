package metric

import (
	"encoding/json"
	"fmt"
)

// Indicator is a discrete quality bucket. The zero value is Unknown.
type Indicator int8

const (
	Unknown Indicator = iota
	Outlier
	Allowed
	Favoured
)

// Level returns the renderer encoding: 0 outlier, 1 allowed, 2 favoured.
// For clashes the same levels read as multiple, one and no clashes.
func (i Indicator) Level() (int, bool) {
	if i == Unknown {
		return 0, false
	}
	return int(i) - 1, true
}

// IndicatorFromLevel is the inverse of Level.
func IndicatorFromLevel(level int) Indicator {
	switch level {
	case 0:
		return Outlier
	case 1:
		return Allowed
	case 2:
		return Favoured
	}
	return Unknown
}

func (i Indicator) String() string {
	switch i {
	case Outlier:
		return "outlier"
	case Allowed:
		return "allowed"
	case Favoured:
		return "favoured"
	}
	return "unknown"
}

// MarshalJSON encodes the level, or null when unknown.
func (i Indicator) MarshalJSON() ([]byte, error) {
	level, ok := i.Level()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(level)
}

// UnmarshalJSON decodes a level or null.
func (i *Indicator) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*i = Unknown
		return nil
	}
	var level int
	if err := json.Unmarshal(b, &level); err != nil {
		return fmt.Errorf("indicator: %w", err)
	}
	if level < 0 || level > 2 {
		return fmt.Errorf("indicator: level %d out of range", level)
	}
	*i = IndicatorFromLevel(level)
	return nil
}
