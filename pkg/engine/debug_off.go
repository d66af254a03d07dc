//go:build !audiodebug

// ABOUTME: Release build switch
// ABOUTME: Programmer errors log and fall back to defined defaults
package engine

const debugChecks = false
