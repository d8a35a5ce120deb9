// Package script provides the scripting capability that evaluates formulas.
//
// Script values cross into and out of Go as a closed set of types:
// Nil, String, Number, Bool, List, Table and *Function. Conversions between
// these and document trees live in package bridge; this package knows
// nothing about trees.
//
// A Context executes source text and returns a Value. Contexts come from a
// Factory so callers decide whether each evaluation gets a fresh context
// and tests can substitute a deterministic stub. LuaFactory backs contexts
// with an embedded Lua 5.1 virtual machine (github.com/yuin/gopher-lua).
//
// Formulas run to completion or failure. There is no built-in time limit;
// a caller-supplied context.Context with a deadline is honored by the Lua
// implementation.
package script
