package script

import (
	"context"
	"errors"
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// DefaultLibraries are the Lua libraries opened when none are configured.
// They give formulas string, table and math helpers without file or process
// access.
var DefaultLibraries = []string{"base", "table", "string", "math"}

type luaLibrary struct {
	name string
	open lua.LGFunction
}

var luaLibraries = map[string]luaLibrary{
	"package":   {lua.LoadLibName, lua.OpenPackage},
	"base":      {lua.BaseLibName, lua.OpenBase},
	"table":     {lua.TabLibName, lua.OpenTable},
	"string":    {lua.StringLibName, lua.OpenString},
	"math":      {lua.MathLibName, lua.OpenMath},
	"os":        {lua.OsLibName, lua.OpenOs},
	"io":        {lua.IoLibName, lua.OpenIo},
	"debug":     {lua.DebugLibName, lua.OpenDebug},
	"coroutine": {lua.CoroutineLibName, lua.OpenCoroutine},
	"channel":   {lua.ChannelLibName, lua.OpenChannel},
}

// LibraryNames lists the accepted library names in sorted order.
func LibraryNames() []string {
	names := make([]string, 0, len(luaLibraries))
	for name := range luaLibraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateLibraries reports the first unknown library name.
func ValidateLibraries(names []string) error {
	for _, name := range names {
		if _, ok := luaLibraries[name]; !ok {
			return fmt.Errorf("unknown Lua library %q: must be one of %v", name, LibraryNames())
		}
	}
	return nil
}

// LuaOptions configures Lua contexts.
type LuaOptions struct {
	// Libraries to open. Empty means DefaultLibraries.
	Libraries []string

	// CallStackSize bounds nested calls. Zero uses the gopher-lua default.
	CallStackSize int
}

// LuaFactory creates Lua contexts.
type LuaFactory struct {
	opts LuaOptions
}

// NewLuaFactory validates opts and returns a factory.
func NewLuaFactory(opts LuaOptions) (*LuaFactory, error) {
	if len(opts.Libraries) == 0 {
		opts.Libraries = DefaultLibraries
	}
	if err := ValidateLibraries(opts.Libraries); err != nil {
		return nil, err
	}
	return &LuaFactory{opts: opts}, nil
}

// NewContext creates a fresh Lua state with the configured libraries.
func (f *LuaFactory) NewContext() (Context, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: f.opts.CallStackSize,
	})

	// package first: other libraries register through it.
	libs := append([]string{"package"}, f.opts.Libraries...)
	for _, name := range libs {
		lib := luaLibraries[name]
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("open Lua library %q: %w", name, err)
		}
	}
	return &luaContext{L: L}, nil
}

type luaContext struct {
	L *lua.LState
}

func (c *luaContext) Eval(ctx context.Context, source string) (Value, error) {
	// The context stays attached so functions returned by this call honor
	// it too.
	if ctx != nil && ctx.Done() != nil {
		c.L.SetContext(ctx)
	}

	// Expressions first, the way an interactive Lua prompt does.
	fn, err := c.L.LoadString("return " + source)
	if err != nil {
		fn, err = c.L.LoadString(source)
		if err != nil {
			return nil, &Error{Phase: "compile", Message: luaMessage(err)}
		}
	}

	c.L.Push(fn)
	if err := c.L.PCall(0, 1, nil); err != nil {
		return nil, &Error{Phase: "runtime", Message: luaMessage(err)}
	}
	ret := c.L.Get(-1)
	c.L.Pop(1)
	return c.fromLua(ret, nil), nil
}

func (c *luaContext) Close() error {
	c.L.Close()
	return nil
}

func (c *luaContext) call(fn *lua.LFunction, arg Value) (Value, error) {
	err := c.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, c.toLua(arg))
	if err != nil {
		return nil, &Error{Phase: "call", Message: luaMessage(err)}
	}
	ret := c.L.Get(-1)
	c.L.Pop(1)
	return c.fromLua(ret, nil), nil
}

// fromLua converts a Lua value. Tables whose keys are exactly 1..n become
// lists; all other tables become tables with fields sorted by key. A table
// that contains itself is cut at the repeat.
func (c *luaContext) fromLua(v lua.LValue, seen map[*lua.LTable]bool) Value {
	switch lv := v.(type) {
	case *lua.LNilType:
		return Nil{}
	case lua.LString:
		return String(lv)
	case lua.LNumber:
		return Number(lv)
	case lua.LBool:
		return Bool(lv)
	case *lua.LFunction:
		return NewFunction(describeFunction(lv), func(arg Value) (Value, error) {
			return c.call(lv, arg)
		})
	case *lua.LTable:
		if seen[lv] {
			return String("<cycle>")
		}
		if seen == nil {
			seen = make(map[*lua.LTable]bool)
		}
		seen[lv] = true
		defer delete(seen, lv)
		return c.tableFromLua(lv, seen)
	default:
		return String(v.String())
	}
}

func (c *luaContext) tableFromLua(t *lua.LTable, seen map[*lua.LTable]bool) Value {
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })

	if n := t.MaxN(); n > 0 && n == count {
		list := make(List, n)
		for i := 1; i <= n; i++ {
			list[i-1] = c.fromLua(t.RawGetInt(i), seen)
		}
		return list
	}

	table := make(Table, 0, count)
	t.ForEach(func(k, v lua.LValue) {
		table = append(table, F(k.String(), c.fromLua(v, seen)))
	})
	table.SortByKey()
	return table
}

func (c *luaContext) toLua(v Value) lua.LValue {
	switch val := v.(type) {
	case nil, Nil:
		return lua.LNil
	case String:
		return lua.LString(val)
	case Number:
		return lua.LNumber(val)
	case Bool:
		return lua.LBool(val)
	case List:
		t := c.L.CreateTable(len(val), 0)
		for i, elem := range val {
			t.RawSetInt(i+1, c.toLua(elem))
		}
		return t
	case Table:
		t := c.L.CreateTable(0, len(val))
		for _, f := range val {
			t.RawSetString(f.Key, c.toLua(f.Value))
		}
		return t
	case *Function:
		return c.L.NewFunction(func(L *lua.LState) int {
			ret, err := val.Call(c.fromLua(L.Get(1), nil))
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(c.toLua(ret))
			return 1
		})
	default:
		return lua.LNil
	}
}

func describeFunction(fn *lua.LFunction) string {
	if fn.IsG {
		return "builtin"
	}
	if fn.Proto != nil {
		return fmt.Sprintf("%s:%d", fn.Proto.SourceName, fn.Proto.LineDefined)
	}
	return "function"
}

// luaMessage drops the stack trace gopher-lua appends to errors.
func luaMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
