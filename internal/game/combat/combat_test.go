package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dpscalc/internal/game/combat"
	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
)

func mod(v float64, src string) tracked.Modifier {
	return tracked.MustModifier(v, src)
}

func TestEffectiveLevel_AddsInvisibleAndStyle(t *testing.T) {
	l := combat.EffectiveLevel(tracked.MustLevel(99), 3)
	assert.Equal(t, 110, l.Value())
}

func TestEffectiveLevel_VoidFloorsAfterBonus(t *testing.T) {
	l := combat.EffectiveLevel(tracked.MustLevel(99), 0, mod(1.1, "void"))
	// floor(107 * 1.1) = floor(117.7)
	assert.Equal(t, 117, l.Value())
}

func TestMaximumRoll_MaxedMeleeAccuracy(t *testing.T) {
	r := combat.MaximumRoll(tracked.MustLevel(99+8), 128)
	assert.Equal(t, 20544, r.Value())

	p := combat.Accuracy(r, tracked.NewRoll(15000, "defence"))
	assert.InDelta(t, 1-float64(15000+2)/float64(2*(20544+1)), p, 1e-12)
	assert.InDelta(t, 0.6349, p, 1e-4)
}

func TestMaximumRoll_ModifiersApplyInArgumentOrder(t *testing.T) {
	lvl := tracked.MustLevel(1)
	// level 1, bonus 36: base roll 100
	a := combat.MaximumRoll(lvl, 36, mod(0.9, "a"), mod(1.3, "b"))
	b := combat.MaximumRoll(lvl, 36, mod(1.3, "b"), mod(0.9, "a"))
	assert.Equal(t, 117, a.Value())
	assert.Equal(t, 117, b.Value())
}

func TestMaximumRoll_NegativeBonus(t *testing.T) {
	r := combat.MaximumRoll(tracked.MustLevel(50), -64)
	assert.Equal(t, 0, r.Value())
	assert.Equal(t, 0.0, combat.Accuracy(r, tracked.NewRoll(1000, "")))
}

func TestAccuracy_Branches(t *testing.T) {
	tests := []struct {
		off, def int
		want     float64
	}{
		{0, 0, 0},
		{0, 100, 0},
		{100, 0, 1 - 2.0/202},
		{1000, 500, 1 - 502.0/2002},
		{500, 1000, 500.0 / 2002},
	}
	for _, tc := range tests {
		got := combat.Accuracy(tracked.NewRoll(tc.off, ""), tracked.NewRoll(tc.def, ""))
		assert.InDelta(t, tc.want, got, 1e-12, "off=%d def=%d", tc.off, tc.def)
	}
}

func TestAccuracy_ContinuousAtEquality(t *testing.T) {
	for _, r := range []int{1, 7, 500, 15000, 20544, 1_000_000} {
		f := float64(r)
		upper := 1 - (f+2)/(2*(f+1))
		lower := f / (2 * (f + 1))
		assert.InDelta(t, upper, lower, 1e-12, "R=%d", r)
		got := combat.Accuracy(tracked.NewRoll(r, ""), tracked.NewRoll(r, ""))
		assert.InDelta(t, lower, got, 1e-12)
		// One step above equality uses the other branch and stays close.
		above := combat.Accuracy(tracked.NewRoll(r+1, ""), tracked.NewRoll(r, ""))
		assert.InDelta(t, got, above, 1.0/float64(r))
	}
}

func TestAccuracy_Property_InUnitIntervalAndMonotone(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		off := rapid.IntRange(0, 200000).Draw(rt, "off")
		def := rapid.IntRange(0, 200000).Draw(rt, "def")
		p := combat.Accuracy(tracked.NewRoll(off, ""), tracked.NewRoll(def, ""))
		assert.GreaterOrEqual(rt, p, 0.0)
		assert.LessOrEqual(rt, p, 1.0)
		higher := combat.Accuracy(tracked.NewRoll(off+1, ""), tracked.NewRoll(def, ""))
		assert.GreaterOrEqual(rt, higher, p-1e-12)
	})
}

func TestRollTwice(t *testing.T) {
	assert.Equal(t, 0.0, combat.RollTwice(0))
	assert.Equal(t, 1.0, combat.RollTwice(1))
	assert.InDelta(t, 0.75, combat.RollTwice(0.5), 1e-12)
}

func TestBaseDamage_FloorsFractionalMaxHit(t *testing.T) {
	base := combat.BaseDamage(tracked.MustLevel(118), 112)
	assert.InDelta(t, 0.5+118.0*176.0/640.0, base, 1e-12)
	assert.InDelta(t, 32.95, base, 1e-9)
	assert.Equal(t, 32, combat.MaxHit(base).Value())
}

func TestMaxHit_FloorsBaseBeforeModifiers(t *testing.T) {
	// floor(32.95) = 32, floor(32 * 1.15) = 36; unfloored 32.95 * 1.15 would give 37.
	got := combat.MaxHit(32.95, mod(1.15, "slayer helmet"))
	assert.Equal(t, 36, got.Value())
}

func TestModifierOrder_Sensitivity(t *testing.T) {
	base := tracked.NewDamageValue(37, "")
	a := combat.ApplyDamageModifiers(base, mod(0.9, "a"), mod(1.3, "b"))
	b := combat.ApplyDamageModifiers(base, mod(1.3, "b"), mod(0.9, "a"))
	assert.Equal(t, 42, a.Value())
	assert.Equal(t, 43, b.Value())

	hundred := tracked.NewDamageValue(100, "")
	assert.Equal(t, 117, combat.ApplyDamageModifiers(hundred, mod(0.9, "a"), mod(1.3, "b")).Value())
	assert.Equal(t, 117, combat.ApplyDamageModifiers(hundred, mod(1.3, "b"), mod(0.9, "a")).Value())
}

func TestModifierSet_CanonicalOrderPinned(t *testing.T) {
	var s combat.ModifierSet
	// Added target-first; canonical order still applies equipment first.
	s.Add(combat.CategoryTarget, mod(1.3, "vs demon"))
	s.Add(combat.CategoryEquipment, mod(0.9, "set penalty"))
	ordered := s.Ordered()
	require.Len(t, ordered, 2)
	assert.Equal(t, "set penalty", ordered[0].Source())
	assert.Equal(t, "vs demon", ordered[1].Source())

	got := combat.ApplyDamageModifiers(tracked.NewDamageValue(37, ""), ordered...)
	assert.Equal(t, 42, got.Value())
}

func TestModifierSet_PreservesInsertionOrderWithinCategory(t *testing.T) {
	var s combat.ModifierSet
	s.Add(combat.CategoryStyle, mod(1.15, "slayer"))
	s.Add(combat.CategorySpecialWeapon, mod(1.5, "keris"))
	s.Add(combat.CategoryStyle, mod(1.2, "salve"))
	names := []string{}
	for _, m := range s.Ordered() {
		names = append(names, m.Source())
	}
	assert.Equal(t, []string{"slayer", "salve", "keris"}, names)
	assert.Equal(t, 3, s.Len())
}

func TestModifierSet_AddPanicsOnInvalidCategory(t *testing.T) {
	var s combat.ModifierSet
	assert.Panics(t, func() { s.Add(combat.Category(42), mod(1, "x")) })
}

func TestParseCategory(t *testing.T) {
	for _, c := range []combat.Category{combat.CategoryEquipment, combat.CategoryStyle, combat.CategorySpecialWeapon, combat.CategoryTarget} {
		got, err := combat.ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := combat.ParseCategory("prayer")
	assert.Error(t, err)
}

func TestSpellMaxHit(t *testing.T) {
	magic := tracked.MustLevel(99)

	seas, err := combat.SpellPreset("trident_of_the_seas")
	require.NoError(t, err)
	d, err := combat.SpellMaxHit(seas, &magic)
	require.NoError(t, err)
	assert.Equal(t, 28, d.Value())

	shadow, err := combat.SpellPreset("tumekens_shadow")
	require.NoError(t, err)
	d, err = combat.SpellMaxHit(shadow, &magic)
	require.NoError(t, err)
	assert.Equal(t, 34, d.Value())

	surge, err := combat.SpellPreset("fire_surge")
	require.NoError(t, err)
	d, err = combat.SpellMaxHit(surge, nil)
	require.NoError(t, err)
	assert.Equal(t, 24, d.Value())
}

func TestSpellMaxHit_PoweredWithoutMagicLevel(t *testing.T) {
	s, err := combat.SpellPreset("sanguinesti_staff")
	require.NoError(t, err)
	_, err = combat.SpellMaxHit(s, nil)
	assert.True(t, errors.Is(err, combat.ErrMissingMagicLevel))
}

func TestSpellMaxHit_LowLevelClampsAtZero(t *testing.T) {
	s, _ := combat.SpellPreset("trident_of_the_seas")
	lvl := tracked.MustLevel(6)
	d, err := combat.SpellMaxHit(s, &lvl)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Value())
}

func TestSpellPreset_Unknown(t *testing.T) {
	_, err := combat.SpellPreset("wind_strike_of_doom")
	assert.True(t, errors.Is(err, combat.ErrUnknownSpell))
	_, err = combat.SpellMaxHit(combat.Spell{Kind: "ancient"}, nil)
	assert.True(t, errors.Is(err, combat.ErrUnknownSpell))
}
