// Package captions builds the SRT subtitle track from a timeline's
// voice-over lines. Cue times come from prefix sums of shot durations with
// a fixed floor-to-millisecond formatting rule, so the same timeline always
// captions byte-identically.
package captions
