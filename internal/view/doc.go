// Package view turns release snapshots into what the CLI, the terminal
// dashboard and the HTTP server display: filtering, sorting, genre menus
// and text tables.
//
// Sorting follows table-header semantics:
//
//	var s view.SortState
//	s = s.Toggle(view.FieldTempo) // tempo ascending
//	s = s.Toggle(view.FieldTempo) // tempo descending
//	s = s.Toggle(view.FieldKey)   // key ascending
//	s.Sort(releases)
//
// Releases with an unknown value for the sorted column always come last.
package view
