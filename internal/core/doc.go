// Package core is the request-scoped facade the HTTP shell and the CLI
// share.
//
// A [Service] resolves uploaded bytes into tables, runs one engine
// operation (preview, summary, clean, diff, combine) and optionally stores
// the produced file in an [ArtifactStore]. No table outlives the call.
//
// # Concurrency
//
// Operations are bounded by an optional [OperationLimiter]; a request that
// cannot get a slot within the configured wait fails with
// [ErrTooManyOperations].
//
// # Error Handling
//
// Engine errors are mapped to user-facing messages with support codes by
// [MapError]:
//
//   - FILE001-FILE009: upload, decoding and format errors
//   - DIFF001-DIFF004: mapping and alignment errors
//   - OPT001-OPT003: option, output format and combine errors
//   - UPL001-UPL003: busy, cancelled and timed out requests
package core
