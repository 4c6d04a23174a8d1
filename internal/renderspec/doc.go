// Package renderspec parses render plans and compiles them, together with a
// normalized timeline and the asset resolver's fallback decisions, into a
// fully explicit RenderSpec. Profiles expand to concrete encoder settings
// here; nothing downstream consults a symbolic name or a default again.
package renderspec
