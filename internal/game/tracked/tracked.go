// Package tracked provides the integer and float quantities used by the
// damage engine. Every value carries an optional provenance comment that
// records how it was derived; numeric results never depend on it.
package tracked

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// ErrNegativeModifier is returned when a modifier is constructed with a value < 0.
var ErrNegativeModifier = errors.New("tracked: modifier must be non-negative")

// ErrNegativeLevel is returned when a level is constructed with a value < 0.
var ErrNegativeLevel = errors.New("tracked: level must be non-negative")

// floorEpsilon absorbs binary representation error before flooring, so that
// 20 * 1.15 floors to 23 and not 22.
const floorEpsilon = 1e-9

var provenance atomic.Bool

// EnableProvenance turns provenance comment recording on or off.
// Off by default; comments are then always empty.
func EnableProvenance(on bool) {
	provenance.Store(on)
}

// ProvenanceEnabled reports whether provenance comments are being recorded.
func ProvenanceEnabled() bool {
	return provenance.Load()
}

func note(format string, args ...any) string {
	if !provenance.Load() {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// Floor multiplies v by m and floors the product.
//
// Precondition: m >= 0.
// Postcondition: Returns floor(v*m) with representation error absorbed.
func Floor(v int, m float64) int {
	return int(math.Floor(float64(v)*m + floorEpsilon))
}

// Modifier is a named, non-negative multiplier.
type Modifier struct {
	value  float64
	source string
}

// NewModifier creates a Modifier from value and the name of its source.
//
// Precondition: value >= 0.
// Postcondition: Returns a Modifier or ErrNegativeModifier.
func NewModifier(value float64, source string) (Modifier, error) {
	if value < 0 || math.IsNaN(value) {
		return Modifier{}, fmt.Errorf("%w: %s = %v", ErrNegativeModifier, source, value)
	}
	return Modifier{value: value, source: source}, nil
}

// MustModifier is NewModifier that panics on error. Intended for package-level presets.
func MustModifier(value float64, source string) Modifier {
	m, err := NewModifier(value, source)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// Value returns the multiplier.
func (m Modifier) Value() float64 { return m.value }

// Source returns the name of the effect that produced the modifier.
func (m Modifier) Source() string { return m.source }

// String renders the modifier as "source (x1.15)".
func (m Modifier) String() string {
	return fmt.Sprintf("%s (x%g)", m.source, m.value)
}

// Level is a non-negative skill level, visible or effective.
type Level struct {
	value   int
	comment string
}

// NewLevel creates a Level.
//
// Precondition: value >= 0.
// Postcondition: Returns a Level or ErrNegativeLevel.
func NewLevel(value int, comment string) (Level, error) {
	if value < 0 {
		return Level{}, fmt.Errorf("%w: got %d", ErrNegativeLevel, value)
	}
	return Level{value: value, comment: note("%s", comment)}, nil
}

// MustLevel is NewLevel that panics on error.
func MustLevel(value int) Level {
	l, err := NewLevel(value, "")
	if err != nil {
		panic(err.Error())
	}
	return l
}

// Value returns the integer level.
func (l Level) Value() int { return l.value }

// Comment returns the provenance comment, empty when provenance is disabled.
func (l Level) Comment() string { return l.comment }

// Add returns l + n, clamped at zero.
func (l Level) Add(n int, reason string) Level {
	v := l.value + n
	if v < 0 {
		v = 0
	}
	return Level{value: v, comment: note("(%d + %d %s)", l.value, n, reason)}
}

// Scale returns floor(l * m).
func (l Level) Scale(m Modifier) Level {
	return Level{value: Floor(l.value, m.value), comment: note("floor(%d * %s)", l.value, m)}
}

// Roll is an attack or defence roll.
type Roll struct {
	value   int
	comment string
}

// NewRoll wraps an integer roll value.
func NewRoll(value int, comment string) Roll {
	return Roll{value: value, comment: note("%s", comment)}
}

// Value returns the integer roll.
func (r Roll) Value() int { return r.value }

// Comment returns the provenance comment.
func (r Roll) Comment() string { return r.comment }

// Scale returns floor(r * m).
func (r Roll) Scale(m Modifier) Roll {
	return Roll{value: Floor(r.value, m.value), comment: note("floor(%d * %s)", r.value, m)}
}

// DamageValue is an integer amount of damage, typically a max hit.
type DamageValue struct {
	value   int
	comment string
}

// NewDamageValue wraps an integer damage value.
func NewDamageValue(value int, comment string) DamageValue {
	return DamageValue{value: value, comment: note("%s", comment)}
}

// FloorDamage floors a fractional base damage into a DamageValue.
func FloorDamage(base float64) DamageValue {
	return DamageValue{value: int(math.Floor(base + floorEpsilon)), comment: note("floor(%g)", base)}
}

// Value returns the integer damage.
func (d DamageValue) Value() int { return d.value }

// Comment returns the provenance comment.
func (d DamageValue) Comment() string { return d.comment }

// Scale returns floor(d * m).
func (d DamageValue) Scale(m Modifier) DamageValue {
	return DamageValue{value: Floor(d.value, m.value), comment: note("floor(%d * %s)", d.value, m)}
}

// Add returns d + n, clamped at zero.
func (d DamageValue) Add(n int, reason string) DamageValue {
	v := d.value + n
	if v < 0 {
		v = 0
	}
	return DamageValue{value: v, comment: note("(%d + %d %s)", d.value, n, reason)}
}
