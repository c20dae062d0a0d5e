// Package pkgroutine bounds and tracks background goroutines.
package pkgroutine
