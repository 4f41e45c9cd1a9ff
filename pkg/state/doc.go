// Package state persists wizard snapshots and the remember-choices flag.
//
// An Adapter reads and writes one serialized snapshot and one boolean flag
// through a Backend. Backends only move raw bytes by key:
//
//   - MemoryBackend lives for the lifetime of the process. It backs the
//     remembered-state service so device choices are not kept across runs
//     unless the caller opts into a durable backend.
//   - SQLiteBackend is durable and backs the preset store.
//   - EncryptedBackend wraps any backend and seals values with age.
//
// Codecs turn snapshots into bytes. JSONCodec is the default; CBORCodec
// produces a compact deterministic encoding.
//
// Corruption policy: a payload that cannot be decrypted or decoded is
// treated as absent. The Adapter logs it at warn level and never returns
// it as an error, so a damaged store can not block the wizard. Backend I/O
// failures are returned.
package state
