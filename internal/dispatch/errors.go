package dispatch

import (
	"errors"
	"strings"

	"github.com/cog-debug/cog-debug/internal/drivererr"
)

// JSON-RPC-compatible error codes, per spec.md §6 "Error codes".
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotSupported   = -32001
)

// RPCError is the wire error shape embedded in a tool response envelope.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newRPCError(code int, message string) *RPCError {
	return &RPCError{Code: code, Message: message}
}

// mapError translates an internal error into an RPCError per spec.md
// §4.5/§7's mapping table: NotSupported becomes -32001 with a
// human-readable message (including install hints when known);
// InvalidArgs (a client fault) becomes -32602; every other error
// collapses to -32603 with the error token.
func mapError(err error) *RPCError {
	if err == nil {
		return nil
	}
	var derr *drivererr.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case drivererr.NotSupported:
			return newRPCError(CodeNotSupported, installHint(derr.Error()))
		case drivererr.InvalidArgs:
			return newRPCError(CodeInvalidParams, derr.Error())
		default:
			return newRPCError(CodeInternalError, derr.Error())
		}
	}
	return newRPCError(CodeInternalError, err.Error())
}

// installHint appends a short install-instruction hint when the failure
// looks like a missing adapter dependency, per spec.md §7
// "Capability-fault" guidance.
func installHint(message string) string {
	for _, marker := range []string{"no adapter available", "no debug adapter registered", "spawn adapter", "executable file not found"} {
		if strings.Contains(message, marker) {
			return message + " (install the matching debug adapter and retry, or set COG_DEBUG_ADAPTER_<EXT>)"
		}
	}
	return message
}

var errRunningSession = errors.New("Session is running. Use debug_poll_events to check status or debug_stop to cancel.")
