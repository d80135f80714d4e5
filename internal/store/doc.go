// Package store provides SQLite-backed durable storage for caller records.
//
// The store holds a single table, caller_info, keyed by the full phone
// number, plus a small settings table for user preferences.
//
// # Schema Versions
//
// The caller_info layout is versioned through PRAGMA user_version and
// upgraded at open time, one step at a time:
//   - v2: phoneNumber was the primary key and held the full number
//   - v3: fullPhoneNumber becomes the key, the national number is split out,
//     city is renamed to location, optional text columns are added
//   - v4: photo column
//
// Databases older than v2 are rejected with ErrUnsupportedSchema, newer
// than v4 with ErrSchemaTooNew.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// # Concurrency
//
// Writers are serialized against each other and against in-flight readers;
// readers share access. Store methods return errors. Repository wraps a
// Store for callers that must never see an error or a panic.
package store
