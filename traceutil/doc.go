// Package traceutil holds the ambient helpers shared by the tracer and
// its commands: a leveled diagnostic logger carried in a context, a
// progress tracker, and function-name matchers used to focus a scan.
package traceutil
