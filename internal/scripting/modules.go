package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
)

// RegisterModules registers the dps helper table into L.
//
//	dps.floor(v, m)   floor(v*m) with the engine's rounding tolerance
//	dps.clamp(x, lo, hi)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: dps global is defined in L.
func RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "floor", L.NewFunction(luaFloor))
	L.SetField(mod, "clamp", L.NewFunction(luaClamp))
	L.SetGlobal("dps", mod)
}

func luaFloor(L *lua.LState) int {
	v := L.CheckInt(1)
	m := float64(L.CheckNumber(2))
	L.Push(lua.LNumber(tracked.Floor(v, m)))
	return 1
}

func luaClamp(L *lua.LState) int {
	x := float64(L.CheckNumber(1))
	lo := float64(L.CheckNumber(2))
	hi := float64(L.CheckNumber(3))
	if lo > hi {
		L.ArgError(2, "lower bound exceeds upper bound")
		return 0
	}
	switch {
	case x < lo:
		x = lo
	case x > hi:
		x = hi
	}
	L.Push(lua.LNumber(x))
	return 1
}
