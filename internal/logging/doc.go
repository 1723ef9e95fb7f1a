// Package logging provides the leveled logger injected into every component
// of the ingestion pipeline.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//
// Output is written through zerolog's console writer to stderr, and
// optionally to a lumberjack-rotated file. The level comes from
// configuration; DEBUG=1 in the environment forces debug output.
package logging
