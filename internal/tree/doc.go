// Package tree provides the generic ordered rose tree used by sofer documents.
//
// Nodes are linked with the first-child/next-sibling encoding:
//   - FirstChild is the head of a node's child list.
//   - NextSibling is the next node at the same level.
//
// A node owns its first child and, through it, every later sibling of that
// child. Appending another child is a walk along one sibling chain; looking a
// node up by identifier is a pre-order scan of the whole structure.
//
// Identifiers are UUIDs. uuid.Nil is reserved for the root of a standalone
// tree and, as a parent reference, means "top level". It is never assigned to
// a node created with NewDetached.
//
// All walks are iterative so deep outlines and long sibling chains do not
// grow the goroutine stack. The package has no knowledge of payload semantics.
package tree
