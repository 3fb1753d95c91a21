package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Period identifies one of the six time-of-use billing slots.
// P1 is the peak period; higher indexes are progressively off-peak.
type Period int

const (
	P1 Period = iota
	P2
	P3
	P4
	P5
	P6
)

// NumPeriods is the number of time-of-use slots every quantity carries.
const NumPeriods = 6

// Periods lists all periods in billing order.
var Periods = [NumPeriods]Period{P1, P2, P3, P4, P5, P6}

func (p Period) String() string {
	return fmt.Sprintf("P%d", int(p)+1)
}

// key is the lowercase form used in JSON/YAML objects ("p1".."p6").
func (p Period) key() string {
	return fmt.Sprintf("p%d", int(p)+1)
}

// ParsePeriod accepts "P1", "p1" or "1".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "p")
	for _, p := range Periods {
		if s == fmt.Sprintf("%d", int(p)+1) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period: %q", s)
}

// PeriodValues holds one quantity (kW, kWh or a unit price) per period.
// All six slots always exist; unused periods are zero.
type PeriodValues [NumPeriods]float64

// Get returns the value for a period.
func (v PeriodValues) Get(p Period) float64 {
	return v[p]
}

// Sum adds the six slots in period order.
func (v PeriodValues) Sum() float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total
}

// Dot returns the period-wise product sum of two vectors.
func (v PeriodValues) Dot(o PeriodValues) float64 {
	total := 0.0
	for i := range v {
		total += v[i] * o[i]
	}
	return total
}

// IsZero reports whether every slot is zero.
func (v PeriodValues) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// NonZero counts slots with a value other than zero.
func (v PeriodValues) NonZero() int {
	n := 0
	for _, x := range v {
		if x != 0 {
			n++
		}
	}
	return n
}

// MarshalJSON writes an object keyed p1..p6 so the order is fixed.
func (v PeriodValues) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range Periods {
		if i > 0 {
			b.WriteByte(',')
		}
		val, err := json.Marshal(v[p])
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "%q:%s", p.key(), val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts either an object keyed by period or an array of up
// to six numbers. Missing periods stay zero.
func (v *PeriodValues) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		return v.fromSlice(arr)
	}
	var obj map[string]float64
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("period values: %w", err)
	}
	return v.fromMap(obj)
}

// UnmarshalYAML mirrors UnmarshalJSON for catalogue files.
func (v *PeriodValues) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var arr []float64
		if err := node.Decode(&arr); err != nil {
			return fmt.Errorf("period values: %w", err)
		}
		return v.fromSlice(arr)
	case yaml.MappingNode:
		var obj map[string]float64
		if err := node.Decode(&obj); err != nil {
			return fmt.Errorf("period values: %w", err)
		}
		return v.fromMap(obj)
	default:
		return fmt.Errorf("period values: unsupported yaml node at line %d", node.Line)
	}
}

func (v *PeriodValues) fromSlice(arr []float64) error {
	if len(arr) > NumPeriods {
		return fmt.Errorf("period values: %d entries, at most %d allowed", len(arr), NumPeriods)
	}
	*v = PeriodValues{}
	copy(v[:], arr)
	return nil
}

func (v *PeriodValues) fromMap(obj map[string]float64) error {
	*v = PeriodValues{}
	for k, x := range obj {
		p, err := ParsePeriod(k)
		if err != nil {
			return fmt.Errorf("period values: %w", err)
		}
		v[p] = x
	}
	return nil
}
