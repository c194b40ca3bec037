// Package server binds, runs and drains the HTTP server.
//
// A [Server] resolves its bind target from configuration (host and port, a
// bare port, or a Unix socket file), assembles the request pipeline, tracks
// every request and connection, and shuts down by draining: the listener is
// closed, in-flight requests finish, and only then are the remaining
// connections closed. TLS credentials can be swapped on the running listener
// with [Server.SetCerts] or by watching the certificate files.
package server
