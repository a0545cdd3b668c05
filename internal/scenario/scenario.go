// Package scenario loads attack scenarios from YAML and converts them into
// engine inputs.
package scenario

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dpscalc/internal/engine"
	"github.com/cory-johannsen/dpscalc/internal/game/combat"
	"github.com/cory-johannsen/dpscalc/internal/game/special"
	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
	"github.com/cory-johannsen/dpscalc/internal/scripting"
)

// ErrScriptUnavailable is returned when a scripted modifier is converted
// without an evaluator.
var ErrScriptUnavailable = errors.New("scenario: scripted modifier needs an evaluator")

// StatDef is one offensive skill as written in YAML.
type StatDef struct {
	Level      int `yaml:"level"`
	StyleBonus int `yaml:"style_bonus"`
	Bonus      int `yaml:"bonus"`
	// Void scales the effective level when > 0.
	Void float64 `yaml:"void"`
}

// ModifierDef is a roll or damage modifier. Exactly one of Value or Script is set.
type ModifierDef struct {
	Category string  `yaml:"category"`
	Value    float64 `yaml:"value"`
	Script   string  `yaml:"script"`
	Source   string  `yaml:"source"`
	Requires string  `yaml:"requires"`
}

// SpellDef names a preset or describes a spell inline.
type SpellDef struct {
	Preset  string `yaml:"preset"`
	Kind    string `yaml:"kind"`
	Name    string `yaml:"name"`
	Base    int    `yaml:"base"`
	Divisor int    `yaml:"divisor"`
	Offset  int    `yaml:"offset"`
}

// ReductionDef names a preset reduction or describes one inline.
type ReductionDef struct {
	Preset string `yaml:"preset"`
	// DefenceBonus parameterizes the justiciar preset.
	DefenceBonus int     `yaml:"defence_bonus"`
	Name         string  `yaml:"name"`
	Fraction     float64 `yaml:"fraction"`
	Chance       float64 `yaml:"chance"`
}

// TargetDef is a defender as written in YAML.
type TargetDef struct {
	Name             string         `yaml:"name"`
	Hitpoints        int            `yaml:"hitpoints"`
	CurrentHitpoints int            `yaml:"current_hitpoints"`
	Attributes       []string       `yaml:"attributes"`
	Reductions       []ReductionDef `yaml:"reductions"`
}

// DefenceDef is the target's defensive roll inputs; a present Roll, even 0,
// overrides the rest.
type DefenceDef struct {
	Level int  `yaml:"level"`
	Bonus int  `yaml:"bonus"`
	Roll  *int `yaml:"roll"`
}

// BoltDef selects an enchanted bolt; Chance 0 uses the bolt's default.
type BoltDef struct {
	Kind   string  `yaml:"kind"`
	Chance float64 `yaml:"chance"`
}

// Scenario is one build attacking one target.
type Scenario struct {
	Name          string `yaml:"name"`
	Mechanic      string `yaml:"mechanic"`
	AttackSpeed   int    `yaml:"attack_speed"`
	SpecialAttack bool   `yaml:"special_attack"`

	Accuracy StatDef `yaml:"accuracy"`
	Strength StatDef `yaml:"strength"`

	AccuracyModifiers []ModifierDef `yaml:"accuracy_modifiers"`
	DamageModifiers   []ModifierDef `yaml:"damage_modifiers"`

	Spell         *SpellDef `yaml:"spell"`
	VisibleMagic  int       `yaml:"visible_magic"`
	VisibleRanged int       `yaml:"visible_ranged"`

	Target            TargetDef   `yaml:"target"`
	Defence           DefenceDef  `yaml:"defence"`
	AdditionalTargets int         `yaml:"additional_targets"`
	NamedTargets      []TargetDef `yaml:"named_targets"`

	Bolt  *BoltDef `yaml:"bolt"`
	Diary bool     `yaml:"diary"`
}

// Validate checks the structural invariants of s.
//
// Postcondition: Returns nil, or an error listing every violation.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if s.AttackSpeed <= 0 {
		errs = append(errs, fmt.Errorf("attack_speed must be > 0, got %d", s.AttackSpeed))
	}
	if s.Accuracy.Void < 0 || s.Strength.Void < 0 {
		errs = append(errs, errors.New("void must be >= 0"))
	}
	if s.Defence.Roll != nil && *s.Defence.Roll < 0 {
		errs = append(errs, fmt.Errorf("defence.roll must be >= 0, got %d", *s.Defence.Roll))
	}
	for i, m := range s.AccuracyModifiers {
		if err := m.validate(); err != nil {
			errs = append(errs, fmt.Errorf("accuracy_modifiers[%d]: %w", i, err))
		}
	}
	for i, m := range s.DamageModifiers {
		if err := m.validate(); err != nil {
			errs = append(errs, fmt.Errorf("damage_modifiers[%d]: %w", i, err))
		}
	}
	if s.Spell != nil {
		if _, err := s.Spell.spell(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.Target.validate(); err != nil {
		errs = append(errs, fmt.Errorf("target: %w", err))
	}
	for i, t := range s.NamedTargets {
		if err := t.validate(); err != nil {
			errs = append(errs, fmt.Errorf("named_targets[%d]: %w", i, err))
		}
	}
	if s.Bolt != nil {
		if _, err := s.Bolt.bolt(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("scenario %q validation failed: %w", s.Name, errors.Join(errs...))
	}
	return nil
}

func (m ModifierDef) validate() error {
	if _, err := combat.ParseCategory(m.Category); err != nil {
		return err
	}
	switch {
	case m.Script != "" && m.Value != 0:
		return errors.New("value and script are mutually exclusive")
	case m.Value < 0:
		return fmt.Errorf("value must be >= 0, got %v", m.Value)
	}
	return nil
}

func (t TargetDef) validate() error {
	var errs []error
	if t.Hitpoints < 0 || t.CurrentHitpoints < 0 {
		errs = append(errs, errors.New("hitpoints must be >= 0"))
	}
	if t.Hitpoints > 0 && t.CurrentHitpoints > t.Hitpoints {
		errs = append(errs, fmt.Errorf("current_hitpoints %d exceeds hitpoints %d", t.CurrentHitpoints, t.Hitpoints))
	}
	for i, r := range t.Reductions {
		if _, err := r.reduction(); err != nil {
			errs = append(errs, fmt.Errorf("reductions[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (d SpellDef) spell() (combat.Spell, error) {
	if d.Preset != "" {
		return combat.SpellPreset(d.Preset)
	}
	s := combat.Spell{Kind: combat.SpellKind(d.Kind), Name: d.Name, Base: d.Base, Divisor: d.Divisor, Offset: d.Offset}
	switch s.Kind {
	case combat.SpellStandard:
		if s.Base < 0 {
			return combat.Spell{}, fmt.Errorf("spell %q: base must be >= 0", s.Name)
		}
	case combat.SpellPowered:
		if s.Divisor <= 0 {
			return combat.Spell{}, fmt.Errorf("spell %q: divisor must be > 0", s.Name)
		}
	default:
		return combat.Spell{}, fmt.Errorf("%w: kind %q", combat.ErrUnknownSpell, d.Kind)
	}
	return s, nil
}

func (d ReductionDef) reduction() (special.Reduction, error) {
	var r special.Reduction
	switch {
	case d.Preset == special.ReductionJusticiar:
		r = special.Justiciar(d.DefenceBonus)
	case d.Preset != "":
		p, err := special.ReductionPreset(d.Preset)
		if err != nil {
			return special.Reduction{}, err
		}
		r = p
	default:
		r = special.Reduction{Name: d.Name, Fraction: d.Fraction, Chance: d.Chance}
		if r.Chance == 0 {
			r.Chance = 1
		}
	}
	if err := r.Validate(); err != nil {
		return special.Reduction{}, err
	}
	return r, nil
}

func (d BoltDef) bolt() (special.Bolt, error) {
	b, err := special.NewBolt(special.BoltKind(d.Kind))
	if err != nil {
		return special.Bolt{}, err
	}
	if d.Chance != 0 {
		if d.Chance < 0 || d.Chance > 1 {
			return special.Bolt{}, fmt.Errorf("bolt %q: chance must be in [0,1], got %v", d.Kind, d.Chance)
		}
		b.Chance = d.Chance
	}
	return b, nil
}

func (t TargetDef) target() (special.Target, error) {
	out := special.Target{
		Name:             t.Name,
		Hitpoints:        t.Hitpoints,
		CurrentHitpoints: t.CurrentHitpoints,
	}
	for _, a := range t.Attributes {
		out.Attributes = append(out.Attributes, special.Attribute(a))
	}
	for _, rd := range t.Reductions {
		r, err := rd.reduction()
		if err != nil {
			return special.Target{}, err
		}
		out.Reductions = append(out.Reductions, r)
	}
	return out, nil
}

// ToInput converts s into an engine input. Scripted modifiers are evaluated
// against the primary target; ev may be nil when s has none.
//
// Precondition: s.Validate() returns nil.
// Postcondition: Returns a populated Input or a non-nil error.
func (s *Scenario) ToInput(ev *scripting.Evaluator) (engine.Input, error) {
	target, err := s.Target.target()
	if err != nil {
		return engine.Input{}, err
	}
	in := engine.Input{
		Name:              s.Name,
		Mechanic:          special.Mechanic(s.Mechanic),
		Accuracy:          engine.Stat{Level: s.Accuracy.Level, StyleBonus: s.Accuracy.StyleBonus, Bonus: s.Accuracy.Bonus},
		Strength:          engine.Stat{Level: s.Strength.Level, StyleBonus: s.Strength.StyleBonus, Bonus: s.Strength.Bonus},
		AttackSpeed:       s.AttackSpeed,
		SpecialAttack:     s.SpecialAttack,
		Target:            target,
		Defence:           engine.Defence{Level: s.Defence.Level, Bonus: s.Defence.Bonus, Roll: s.Defence.Roll},
		AdditionalTargets: s.AdditionalTargets,
		DiaryBoost:        s.Diary,
		VisibleRanged:     s.VisibleRanged,
	}
	if in.AccuracyVoid, err = voidModifier(s.Accuracy.Void, "accuracy void"); err != nil {
		return engine.Input{}, err
	}
	if in.StrengthVoid, err = voidModifier(s.Strength.Void, "strength void"); err != nil {
		return engine.Input{}, err
	}

	info := targetInfo(s.Target)
	if in.AccuracyModifiers, err = modifiers(s.AccuracyModifiers, ev, info); err != nil {
		return engine.Input{}, fmt.Errorf("accuracy modifiers: %w", err)
	}
	if in.DamageModifiers, err = modifiers(s.DamageModifiers, ev, info); err != nil {
		return engine.Input{}, fmt.Errorf("damage modifiers: %w", err)
	}

	if s.Spell != nil {
		sp, err := s.Spell.spell()
		if err != nil {
			return engine.Input{}, err
		}
		in.Spell = &sp
		if s.VisibleMagic > 0 {
			lvl, err := tracked.NewLevel(s.VisibleMagic, "visible magic")
			if err != nil {
				return engine.Input{}, err
			}
			in.VisibleMagic = &lvl
		}
	}

	for _, td := range s.NamedTargets {
		t, err := td.target()
		if err != nil {
			return engine.Input{}, err
		}
		in.NamedTargets = append(in.NamedTargets, t)
	}

	if s.Bolt != nil {
		b, err := s.Bolt.bolt()
		if err != nil {
			return engine.Input{}, err
		}
		in.Bolt = &b
	}
	return in, nil
}

func voidModifier(v float64, source string) (*tracked.Modifier, error) {
	if v == 0 {
		return nil, nil
	}
	m, err := tracked.NewModifier(v, source)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func modifiers(defs []ModifierDef, ev *scripting.Evaluator, info scripting.TargetInfo) ([]engine.Modifier, error) {
	out := make([]engine.Modifier, 0, len(defs))
	for _, d := range defs {
		cat, err := combat.ParseCategory(d.Category)
		if err != nil {
			return nil, err
		}
		value := d.Value
		source := d.Source
		if d.Script != "" {
			if ev == nil {
				return nil, fmt.Errorf("%w: %q", ErrScriptUnavailable, d.Script)
			}
			if value, err = ev.Evaluate(d.Script, info); err != nil {
				return nil, err
			}
			if source == "" {
				source = "script " + d.Script
			}
		}
		m, err := tracked.NewModifier(value, source)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.Modifier{Category: cat, Value: m, Requires: special.Attribute(d.Requires)})
	}
	return out, nil
}

func targetInfo(t TargetDef) scripting.TargetInfo {
	current := t.CurrentHitpoints
	if current == 0 {
		current = t.Hitpoints
	}
	return scripting.TargetInfo{
		Name:             t.Name,
		Hitpoints:        t.Hitpoints,
		CurrentHitpoints: current,
		Attributes:       t.Attributes,
	}
}
