package scripting

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// entryPoint is the global every modifier script must define.
const entryPoint = "modifier"

var (
	// ErrUnknownScript is returned when evaluating a name that was never compiled.
	ErrUnknownScript = errors.New("scripting: unknown script")
	// ErrNoEntryPoint is returned when a script does not define modifier(target).
	ErrNoEntryPoint = errors.New("scripting: script does not define modifier")
	// ErrBadResult is returned when modifier(target) does not yield a non-negative number.
	ErrBadResult = errors.New("scripting: modifier must return a non-negative number")
)

// TargetInfo is the snapshot of a target passed to modifier(target).
type TargetInfo struct {
	Name             string
	Hitpoints        int
	CurrentHitpoints int
	Attributes       []string
}

// Evaluator compiles modifier scripts once and evaluates each call in a fresh
// sandboxed VM.
//
// Evaluator is safe for concurrent Evaluate calls.
type Evaluator struct {
	mu     sync.RWMutex
	protos map[string]*lua.FunctionProto
	limit  int
	logger *zap.Logger
}

// NewEvaluator creates an Evaluator.
//
// Precondition: instLimit >= 0; logger must be non-nil.
func NewEvaluator(instLimit int, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		protos: make(map[string]*lua.FunctionProto),
		limit:  instLimit,
		logger: logger,
	}
}

// Compile parses source and stores it under name, replacing any previous script.
//
// Postcondition: Returns a non-nil error if source does not parse.
func (e *Evaluator) Compile(name, source string) error {
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return fmt.Errorf("scripting: parsing %q: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return fmt.Errorf("scripting: compiling %q: %w", name, err)
	}
	e.mu.Lock()
	e.protos[name] = proto
	e.mu.Unlock()
	return nil
}

// CompileFile compiles the script at path under name.
func (e *Evaluator) CompileFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return e.Compile(name, string(data))
}

// CompileDir compiles every *.lua file in dir, named by file stem, in
// lexicographic order.
//
// Postcondition: Returns the compiled names or the first error encountered.
func (e *Evaluator) CompileDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, ent := range entries {
		if !ent.IsDir() && filepath.Ext(ent.Name()) == ".lua" {
			files = append(files, ent.Name())
		}
	}
	sort.Strings(files)

	names := make([]string, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(f, ".lua")
		if err := e.CompileFile(name, filepath.Join(dir, f)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Has reports whether a script named name has been compiled.
func (e *Evaluator) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.protos[name]
	return ok
}

// Evaluate runs the named script's modifier(target) and returns its result.
//
// Precondition: name must have been compiled.
// Postcondition: Returns a finite value >= 0, or a non-nil error.
func (e *Evaluator) Evaluate(name string, t TargetInfo) (float64, error) {
	e.mu.RLock()
	proto, ok := e.protos[name]
	e.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}

	L, cancel := NewSandboxedState(e.limit)
	defer L.Close()
	defer cancel()
	RegisterModules(L)

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		e.logger.Warn("scripting: Lua load error", zap.String("script", name), zap.Error(err))
		return 0, fmt.Errorf("scripting: loading %q: %w", name, err)
	}

	fn := L.GetGlobal(entryPoint)
	if fn.Type() != lua.LTFunction {
		return 0, fmt.Errorf("%w: %q", ErrNoEntryPoint, name)
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, targetTable(L, t)); err != nil {
		e.logger.Warn("scripting: Lua runtime error", zap.String("script", name), zap.Error(err))
		return 0, fmt.Errorf("scripting: running %q: %w", name, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%w: %q returned %s", ErrBadResult, name, ret.Type())
	}
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %q returned %v", ErrBadResult, name, v)
	}
	return v, nil
}

func targetTable(L *lua.LState, t TargetInfo) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("name", lua.LString(t.Name))
	tbl.RawSetString("hitpoints", lua.LNumber(t.Hitpoints))
	tbl.RawSetString("current_hitpoints", lua.LNumber(t.CurrentHitpoints))
	attrs := L.NewTable()
	for _, a := range t.Attributes {
		attrs.RawSetString(a, lua.LTrue)
	}
	tbl.RawSetString("attributes", attrs)
	return tbl
}
