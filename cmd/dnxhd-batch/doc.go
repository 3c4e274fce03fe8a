// Command dnxhd-batch converts video files to DNxHR from the terminal using
// the same transcode service as the desktop app.
//
//	dnxhd-batch check
//	dnxhd-batch probe clip.mp4
//	dnxhd-batch encode --profile hqx --container mov *.mp4
//	dnxhd-batch presets list
package main
