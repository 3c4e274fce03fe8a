// Package ffmpeg builds DNxHR encode commands and supervises ffmpeg
// processes: binary lookup, argument construction, the two-pass EBU R128
// loudness measurement, -progress stream parsing, and exit error reporting.
package ffmpeg
