//go:build audiodebug

// ABOUTME: Debug build switch, enabled with -tags audiodebug
// ABOUTME: Turns programmer errors such as unknown bus lookups into panics
package engine

const debugChecks = true
