// Package promote mirrors validated staging content into production.
//
// Promotion is gated on the dataset's latest evaluation, serialized by a
// TTL lock, and idempotent: deterministic vector identities make the mirror
// a plain upsert, so an interrupted run is safely re-run. Production
// vectors that no longer exist in staging are pruned after the mirror
// completes.
package promote
