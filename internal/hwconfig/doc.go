// Package hwconfig owns the externally-maintained test-bed inventory.
//
// Ownership boundary:
// - INI hardware-config parsing (one section per attached board)
//
// - claim/free bookkeeping over the parsed device pool
//
// - plain-text cluster host list parsing
//
// Both files are read-only inputs produced by the harness operator.
package hwconfig
