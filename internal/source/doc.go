// Package source supplies camera frames to the pipeline.
//
// Producers publish into a Mailbox, a single overwrite-on-publish slot that
// keeps only the newest frame. Consumers read it with Latest without
// draining it, so the sampling and face cadences can look at the same frame.
package source
