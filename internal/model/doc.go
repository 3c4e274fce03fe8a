package model

// Package model defines domain data structures used across the app: encode
// options and their container rules, transcode jobs, batches, and status enums.
// Structures are designed for direct binding in the UI and explicit state
// transitions.
