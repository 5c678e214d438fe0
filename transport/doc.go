// Package transport contains descriptions of all the
// services exposed by a tokenbook server and different
// implementations of clients and servers for different
// protocols. A frontend resolves the caller's identity
// and hands the call to a TokenbookServer, so adding a
// protocol does not touch the service itself.
package transport
