// Package interchange moves documents between sofer trees and the formats
// the command line reads and writes.
//
// Import formats:
//
//	sofer  the native line format
//	lua    Lua source evaluating to a document table (bridge.ValueToTree)
//	json   a document table as JSON, decoded through CUE
//	cue    a document table as CUE
//	opml   nested <outline> elements
//
// Export formats are sofer, lua and json. Only the sofer export selects
// between raw and evaluated text; the table formats carry both.
//
// Imports always yield a tree rooted at the nil identifier. A table whose
// top identifier is not nil is attached under a fresh document root.
package interchange
