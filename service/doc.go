// Package service orchestrates the core components of the swap engine:
// the in-memory engine, the command journal, the state store and the
// outbox.
//
// It provides the only write path into the system, decoupled from
// network transports like gRPC and HTTP.
package service
