// Package indi owns the client-side device/vector/member model.
//
// Ownership boundary:
// - typed members, vectors and devices (live store + snapshot values)
// - event decoder: framed element -> typed Event, mutating the store
// - vector builder: caller submission -> outbound new*Vector element
//
// All mutation goes through Decoder and the builder; readers only ever
// receive deep copies.
package indi
