// Package spin provides a test-and-set spin lock and a completion flag,
// each available in a variant padded to a full cache line.
//
// The padded variants are meant to be stored in arrays indexed by tag or
// producer slot: without padding, neighbouring locks share a cache line and
// every acquisition on one core invalidates the line on the others.
package spin
