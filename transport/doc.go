// Package transport opens the serial line a ViSi-Genie display is attached
// to and defines the Port abstraction the session runs over.
//
// Open uses go.bug.st/serial. Anything satisfying Port (a pipe, a TCP
// bridge to ser2net, the genietest simulator) can be used instead.
package transport
