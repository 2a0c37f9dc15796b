// Package table provides the small column-ordered data frame used to carry
// measurements between pipeline stages.
//
// Cells are typed Values (null, float, string, bool). Cells read from text
// stay strings until a numeric or boolean view is requested, so label columns
// such as "003" survive a read/write cycle untouched. Tables are written as
// tab-separated text with an empty cell for null and True/False for booleans.
package table
