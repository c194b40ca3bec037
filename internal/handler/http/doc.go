// Package http assembles the request pipeline served by the HTTP server.
//
// [Pipeline] keeps middlewares, routes and static mounts in registration order
// and builds a chi router from them on first use. The package also carries
// the pass-through middlewares the server installs depending on its
// configuration (body parsing, compression, security headers, access logging,
// the ready gate) and the small built-in API of the example binary.
package http
