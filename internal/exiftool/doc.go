// Package exiftool communicates with a long-lived instance of Phil Harvey's
// exiftool command-line application running in -stay_open batch mode.
//
// Launching exiftool once and streaming command batches to it is much
// cheaper than a process per file. Output for each batch is read up to the
// "{ready}" sentinel under a watchdog timeout, so a wedged subprocess
// surfaces as a recoverable ErrTimeout instead of a hang. The process
// lifetime is reference-counted (Acquire/Release) so nested users share a
// single instance.
package exiftool
