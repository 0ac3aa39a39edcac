// Package protocol owns the wire contract and parsing primitives.
//
// Ownership boundary:
// - element model (tag, attributes, text, children)
// - element parse/encode against the XML wire form
// - tag tables for inbound and outbound top-level elements
package protocol
