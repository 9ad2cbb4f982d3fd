package rpcinterface

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

const (
	jsonrpcVersion = "2.0"
	execMethod     = "exec"

	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInternalError  = -32603
	codeAccessDenied   = -403
	codeCommandFailed  = -1
)

var (
	errParse         = &rpcError{Code: codeParseError, Message: "Parse error"}
	errInvalidReq    = &rpcError{Code: codeInvalidRequest, Message: "Invalid request"}
	errUnknownCmd    = &rpcError{Code: codeInvalidRequest, Message: "Unknown command"}
	errMethodMissing = &rpcError{Code: codeMethodNotFound, Message: "Method not found"}
	errAccessDenied  = &rpcError{Code: codeAccessDenied, Message: "Access denied"}
	errInternal      = &rpcError{Code: codeInternalError, Message: "Internal error"}
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return e.Message
}

// Credentials authenticate every exec call.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func writeResponse(w http.ResponseWriter, id json.RawMessage, result interface{}, rpcErr *rpcError) {
	if len(id) <= 0 {
		id = json.RawMessage("null")
	}
	res := response{JSONRPC: jsonrpcVersion, ID: id}
	if rpcErr != nil {
		res.Error = rpcErr
	} else {
		res.Result = result
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.WithError(err).Warn("rpc: failed to write response")
	}
}
