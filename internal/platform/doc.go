// Package platform contains OS integration glue: revealing and opening files,
// directory helpers, default log locations, and filtering of dropped files.
package platform
