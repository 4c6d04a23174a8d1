// Package placeholder synthesizes deterministic stand-in frames for shots
// whose visual asset is missing or unreachable. Frames are cached on disk
// keyed by shot id and geometry.
package placeholder
