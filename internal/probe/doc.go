// Package probe owns debug-probe interaction for nRF52840 boards.
//
// Ownership boundary:
// - action keyword parsing and usage text
//
// - ordered J-Link commander script generation
//
// - probe process invocation with temp-script cleanup
//
// The command orderings are dictated by the chip's memory-mapped flash
// controller protocol; probe exit status is reported but never gated on.
package probe
