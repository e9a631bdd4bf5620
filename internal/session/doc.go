// Package session sequences one harness pass: change-check each tracked
// source tree, rebuild and re-flash on firmware change, then hand off to the
// external test runner.
//
// Ownership boundary:
// - git-pull change detection per component
//
// - flash fan-out over the configured device pool
//
// - test-runner invocation with the dated results layout
//
// Flash failures are reported, never gated on; an all-up-to-date pass
// performs zero flashes and zero test runs.
package session
