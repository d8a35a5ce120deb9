// Package sofer converts document trees to and from the sofer text format.
//
// A sofer document is an unordered list of records, one per line:
//
//	<id> <parent_id> <attributes> <content>
//
// Identifiers are canonical hyphenated UUIDs; the nil UUID as parent means
// "top level". Attributes follow the grammar in node.ParseAttributes and may
// contain spaces only inside quoted text values. Content runs to the end of
// the line and may itself contain spaces.
//
// # Parsing
//
// Parsing is all or nothing: a malformed identifier or attribute field fails
// the whole document with a *ParseError naming the line and fragment.
// Records whose parent never appears in the document are not an error; they
// are placed at top level, so an excerpt of a larger document keeps every
// record. Records that only reach each other through a parent cycle have no
// place in the tree and are left out.
//
// The assembled tree does not depend on record order. Siblings are ordered by
// identifier, which for time-ordered identifiers is creation order.
//
// # Serializing
//
// Records are written sorted by identifier, not in tree order. The root of
// the document (nil identifier) is never written.
package sofer
