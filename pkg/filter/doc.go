// Package filter builds the postfix-encoded msgpack expression tree
// used to filter transactions server-side: comparisons,
// boolean logic, arithmetic, bin reads, and embedded CDT sub-expressions.
// An expression serializes to a flat command list in postfix order
// (operands before operator) and round-trips through base64 for
// transport in a FieldFilterExpr field.
package filter
