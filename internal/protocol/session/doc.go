// Package session owns client session transport helpers.
//
// Ownership boundary:
// - session timing configuration and defaults
// - reconnect backoff and stop-aware pauses
// - the outbound element queue drained by the writer loop
// - idle and response activity clocks shared by the session sub-loops
package session
