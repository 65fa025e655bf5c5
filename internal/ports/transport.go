package ports

// Transport defines the interface for a serving frontend
type Transport interface {
	// Start starts the transport
	Start() error

	// Stop stops the transport
	Stop() error
}
