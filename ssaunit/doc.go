// Package ssaunit presents functions built by golang.org/x/tools/go/ssa,
// together with the assembly files of their packages, as an
// iotaint.Unit.
//
// A call is a call into assembly when its static callee has no Go body
// and a TEXT block of the callee's package defines it. Debug locations
// come from the program's token.FileSet.
package ssaunit
