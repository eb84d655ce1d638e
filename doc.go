// Package backend is the lingxijiao API: anonymous self-description posts
// that other users answer privately by email.
//
// Entry points live under cmd/:
//
//   - cmd/server: the HTTP API and the static web client
//   - cmd/cli: migrations, seeding, token backfill, reindexing and checks
//
// The packages under internal/ are wired together by internal/kernel.
package backend
