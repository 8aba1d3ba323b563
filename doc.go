// Package iotaint traces the values produced by hardware input reads
// through a program's SSA form.
//
// A "seed" is a call into an assembly routine whose body reads an I/O
// port or a segment-relative memory location. From each seed the engine
// follows def-use edges forward, across returns into every call site of
// the enclosing function, and across stores into every other access of
// the same address, printing a depth-indented trace as it goes.
//
// The analysis is read-only and diagnostic: it never transforms the
// program and never fails the caller.
package iotaint
