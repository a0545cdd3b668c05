// Package special builds damage distributions for weapon mechanics that the
// uniform hitsplat cannot express. Each Mechanic maps to a pure Strategy in
// a Registry; adding a mechanic means registering a function, not editing a
// dispatcher.
package special

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
)

var (
	// ErrUnknownMechanic is returned when no Strategy is registered for a Mechanic.
	ErrUnknownMechanic = errors.New("special: unknown mechanic")
	// ErrNoSpecialAttack is returned when a special attack is requested for a
	// mechanic that does not model one.
	ErrNoSpecialAttack = errors.New("special: weapon has no special attack")
	// ErrMissingBolt is returned when the bolt mechanic is used without a bolt.
	ErrMissingBolt = errors.New("special: bolt mechanic requires a bolt")
	// ErrMissingRangedLevel is returned when a bolt effect scales with a
	// visible ranged level that was not supplied.
	ErrMissingRangedLevel = errors.New("special: bolt effect requires a visible ranged level")
	// ErrInvalidReduction is returned for a reduction fraction or chance outside [0, 1].
	ErrInvalidReduction = errors.New("special: invalid damage reduction")
)

// DefaultMaxTargets is the AoE target limit used when Context.MaxTargets is 0.
const DefaultMaxTargets = 9

// Mechanic names a weapon behaviour.
type Mechanic string

const (
	// MechanicStandard is a single uniform hitsplat.
	MechanicStandard Mechanic = "standard"
	// MechanicScythe deals three hits at max, max/2 and max/4 behind one accuracy roll.
	MechanicScythe Mechanic = "scythe"
	// MechanicFang rolls accuracy twice and hits within 15%..85% of max.
	MechanicFang Mechanic = "fang"
	// MechanicClaws is a standard hit whose special attack cascades over four hits.
	MechanicClaws Mechanic = "claws"
	// MechanicAoE replicates the hit across additional targets.
	MechanicAoE Mechanic = "aoe"
	// MechanicBolt mixes in an enchanted-bolt effect.
	MechanicBolt Mechanic = "bolt"
)

// Attribute is a target flag that gates target-specific modifiers.
type Attribute string

const (
	// AttributeUndead marks targets affected by salve-type modifiers.
	AttributeUndead Attribute = "undead"
	// AttributeDemon marks targets affected by demonbane-type modifiers.
	AttributeDemon Attribute = "demon"
	// AttributeDragon marks targets affected by dragonbane-type modifiers.
	AttributeDragon Attribute = "dragon"
	// AttributeKalphite marks targets affected by keris-type modifiers.
	AttributeKalphite Attribute = "kalphite"
)

// Target describes the defender as far as distribution building needs.
type Target struct {
	Name string
	// Hitpoints is the overkill cap; 0 leaves hits uncapped.
	Hitpoints int
	// CurrentHitpoints drives effects based on remaining health; 0 falls back to Hitpoints.
	CurrentHitpoints int
	Attributes       []Attribute
	// Reductions are the target's defensive damage reductions.
	Reductions []Reduction
}

// Has reports whether the target carries attribute a.
func (t Target) Has(a Attribute) bool {
	for _, x := range t.Attributes {
		if x == a {
			return true
		}
	}
	return false
}

func (t Target) current() int {
	if t.CurrentHitpoints > 0 {
		return t.CurrentHitpoints
	}
	return t.Hitpoints
}

// Context carries the resolved scalars a Strategy needs.
type Context struct {
	MaxHit        int
	Accuracy      float64
	AttackSpeed   int
	SpecialAttack bool
	Target        Target
	// AdditionalTargets replicates the primary target this many times (AoE).
	AdditionalTargets int
	// NamedTargets lists extra AoE targets, each with its own cap. Takes
	// precedence over AdditionalTargets.
	NamedTargets []Target
	// MaxTargets caps the total number of AoE targets including the primary.
	MaxTargets int
	Bolt       *Bolt
	// DiaryBoost raises bolt proc chance by 10%.
	DiaryBoost bool
	// VisibleRanged is the attacker's visible ranged level; 0 when unknown.
	VisibleRanged int
}

// Strategy builds the Damage for one attack.
type Strategy func(Context) (hitsplat.Damage, error)

// Registry maps mechanics to strategies. Safe for concurrent Build once
// registration is complete.
type Registry struct {
	strategies map[Mechanic]Strategy
}

// NewRegistry returns a Registry preloaded with every built-in mechanic.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[Mechanic]Strategy)}
	r.Register(MechanicStandard, Standard)
	r.Register(MechanicScythe, Scythe)
	r.Register(MechanicFang, Fang)
	r.Register(MechanicClaws, Claws)
	r.Register(MechanicAoE, AoE)
	r.Register(MechanicBolt, BoltProc)
	return r
}

// Register adds or replaces the Strategy for m.
//
// Precondition: s is non-nil.
func (r *Registry) Register(m Mechanic, s Strategy) {
	r.strategies[m] = s
}

// Mechanics returns the registered mechanics in sorted order.
func (r *Registry) Mechanics() []Mechanic {
	out := make([]Mechanic, 0, len(r.strategies))
	for m := range r.strategies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Build dispatches ctx to the Strategy registered for m.
func (r *Registry) Build(m Mechanic, ctx Context) (hitsplat.Damage, error) {
	s, ok := r.strategies[m]
	if !ok {
		return hitsplat.Damage{}, fmt.Errorf("%w: %q", ErrUnknownMechanic, m)
	}
	return s(ctx)
}

// finish applies the target's reductions and hitpoint cap to a raw hit.
func finish(raw hitsplat.Hitsplat, t Target) (hitsplat.Hitsplat, error) {
	h, err := ApplyReductions(raw, t.Reductions)
	if err != nil {
		return hitsplat.Hitsplat{}, err
	}
	if t.Hitpoints > 0 {
		return h.Clamp(t.Hitpoints)
	}
	return h, nil
}

// Standard is the generic uniform hit. Special attacks are not modelled.
func Standard(ctx Context) (hitsplat.Damage, error) {
	if ctx.SpecialAttack {
		return hitsplat.Damage{}, fmt.Errorf("%w: standard", ErrNoSpecialAttack)
	}
	return standard(ctx)
}

func standard(ctx Context) (hitsplat.Damage, error) {
	raw, err := hitsplat.Basic(ctx.MaxHit, ctx.Accuracy)
	if err != nil {
		return hitsplat.Damage{}, err
	}
	h, err := finish(raw, ctx.Target)
	if err != nil {
		return hitsplat.Damage{}, err
	}
	return hitsplat.NewDamage(ctx.AttackSpeed, h)
}
