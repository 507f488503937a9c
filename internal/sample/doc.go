// Package sample is a hand-written stand-in for schema code produced by a
// table compiler. It defines two tables, Items and Levels, where every level
// references an item by id.
//
// Rows use a little-endian encoding: a row count followed by fixed fields,
// with strings stored as a length-prefixed UTF-8 run.
package sample
