// Package bridge converts document trees to and from script values.
//
// Outbound, a tree becomes a table with three fields:
//
//	value     the node projection (at least "raw")
//	uuid      the node identifier
//	children  a list of the same shape, in sibling order
//
// TreeToValue is the projection handed to formulas: compact identifiers and
// only the raw text of each node. DocumentValue is the full projection used
// for interchange: canonical identifiers, the evaluated text and typed
// attributes. ValueToTree accepts either and rebuilds a tree; any shape
// mismatch is reported as a *ConversionError naming the offending path.
//
// ExportLua renders DocumentValue as Lua table constructor source that a Lua
// context evaluates back into the same value.
package bridge
