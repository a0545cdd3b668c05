package combat

import (
	"fmt"

	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
)

// Category groups modifiers by the kind of effect that produces them.
// Categories apply in ascending order; flooring after every step makes the
// order observable.
type Category int

const (
	// CategoryEquipment covers set bonuses and other equipment-wide effects (void, inquisitor).
	CategoryEquipment Category = iota
	// CategoryStyle covers style, slayer task and salve amulet effects.
	CategoryStyle
	// CategorySpecialWeapon covers special-attack and weapon-passive effects.
	CategorySpecialWeapon
	// CategoryTarget covers target-specific effects (vs demon, vs undead, vs dragon).
	CategoryTarget

	categoryCount
)

var categoryNames = [...]string{"equipment", "style", "special_weapon", "target"}

// String returns the configuration name of the category.
func (c Category) String() string {
	if c < 0 || c >= categoryCount {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseCategory maps a configuration name back to a Category.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("combat: unknown modifier category %q", s)
}

// ModifierSet collects modifiers by category and yields them in canonical
// order. Within one category insertion order is preserved.
//
// The zero value is ready to use.
type ModifierSet struct {
	byCategory [categoryCount][]tracked.Modifier
}

// Add appends m to category c.
//
// Precondition: c is one of the declared categories.
func (s *ModifierSet) Add(c Category, m tracked.Modifier) {
	if c < 0 || c >= categoryCount {
		panic(fmt.Sprintf("combat: ModifierSet.Add: invalid category %d", c))
	}
	s.byCategory[c] = append(s.byCategory[c], m)
}

// Len returns the number of collected modifiers.
func (s *ModifierSet) Len() int {
	n := 0
	for _, ms := range s.byCategory {
		n += len(ms)
	}
	return n
}

// Ordered returns every modifier in canonical application order.
func (s *ModifierSet) Ordered() []tracked.Modifier {
	out := make([]tracked.Modifier, 0, s.Len())
	for _, ms := range s.byCategory {
		out = append(out, ms...)
	}
	return out
}
