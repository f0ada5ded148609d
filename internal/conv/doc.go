// Package conv provides safe integer type conversion utilities.
//
// Document ids index roaring bitmaps as uint32; these helpers reject values
// that do not fit instead of wrapping.
package conv
