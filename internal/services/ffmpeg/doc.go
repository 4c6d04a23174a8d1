// Package ffmpeg wraps the external ffmpeg binary behind a small Client
// interface so the render orchestrator can launch encodes, check the
// installed version, and extract per-frame hashes for fingerprinting.
//
// The client never builds arguments itself; it executes whatever argv the
// orchestrator compiled, because argument ordering is part of the
// determinism surface. Failures are never retried and carry the encoder's
// diagnostic output verbatim. Tests can swap in fakes to avoid executing the
// real encoder while still exercising pipeline behaviour.
package ffmpeg
