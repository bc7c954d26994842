// Package pure memoizes pure functions by their arguments.
//
// A tableized function is treated as a lazily filled table: the first call
// with some arguments computes the value, later calls read it back. Only
// functions whose result depends on nothing but their arguments may be
// tableized; time, I/O and mutable state are off limits.
//
// Tables are bounded. Once the newest generation holds maxTableSize entries
// it becomes the old generation and a fresh one starts, so at most two
// generations are kept.
//
// Arguments must be comparable or implement fmt.Stringer.
package pure
