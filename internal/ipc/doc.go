// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs for
// every engine operation. The server embeds the daemon while the client
// keeps one method per command so CLI code never touches wire details.
package ipc
