// Package shared holds code used across packages that belongs to no single layer.
//
// The testutil subpackage provides a buffered slog handler for asserting on log
// output and builders for raw minute files and symbol lists.
package shared
