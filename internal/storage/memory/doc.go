// Package memory provides in-memory storage for branchweb session keys.
//
// It contains the authoritative key store and the owner index that maps
// users to the keys issued to them.
//
// Features:
//
//   - KeyStore: issue, validate (sliding refresh), revoke, sweep
//   - OwnerIndex: user -> key IDs and key ID -> user back-references
//   - Janitor: optional periodic sweep driven by KeyStore.Run
//
// Thread Safety:
//
// KeyStore serializes every operation on a single mutex, so a sweep never
// interleaves with a validation of the same key. OwnerIndex is sharded and
// is kept in step through KeyStore removal observers.
package memory
