// Package probe wraps ffprobe to read the duration, frame rate and stream
// layout of an input before it is transcoded.
//
// Inspect performs a single JSON call. Duration is a lightweight fallback
// that only asks for the container duration.
package probe
