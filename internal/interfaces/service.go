package interfaces

// Service is implemented by every outer surface of the daemon (the JSON-RPC
// command server today).
type Service interface {
	Start() error
	Stop()
}
