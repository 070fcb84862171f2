// Package log provides structured protocol event logging for the
// TASE.2 client.
//
// Events are recorded at the service layer: point reads and writes,
// Block 5 control operations, discovery, incoming transfer reports,
// association state changes and errors. The file format is a stream of
// CBOR-encoded events with integer keys, compact enough to leave
// enabled in production and replayable through Reader.
//
// Applications pass a Logger to the client; NoopLogger disables
// logging, SlogAdapter bridges to log/slog for console output, and
// MultiLogger fans out to several sinks at once.
package log
