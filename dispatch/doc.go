// Package dispatch routes display reports to handlers.
//
// A report goes to the handlers registered for its exact object and index.
// If there are none, it goes to the handlers registered for its object type,
// and failing that to the fallback. Magic reports are routed by magic index
// alone. Acknowledgements are never dispatched.
package dispatch
