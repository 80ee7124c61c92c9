// Package source provides the inputs that get divided among workers.
//
// The package includes:
//
//   - Static: Fixed in-memory list of items
//   - File: Items read from a text file
//   - ReadItems: Parser for the "value[,weight]" line format
//
// Custom sources can be implemented by satisfying the Source interface.
package source
