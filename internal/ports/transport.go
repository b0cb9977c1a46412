package ports

import "time"

// Transport is the opaque duplex text channel to the instrument: ASCII
// commands out, ASCII responses back. Implementations (GPIB controller,
// HiSLIP client, simulator) return an error on any I/O failure; nothing in
// the core retries.
//
// Transport methods are not internally synchronized. All calls happen on the
// foreground context, except Read and AssertTrigger which the acquisition
// loop calls while measuring.
type Transport interface {
	// Write sends one command string, no response expected.
	Write(command string) error
	// Query sends a command and returns the instrument's response.
	Query(command string) (string, error)
	// Read performs a blocking read of the next response, used after a
	// trigger has armed the instrument's read macro.
	Read() (string, error)
	// SetTimeout adjusts the read timeout for subsequent Query/Read calls.
	SetTimeout(d time.Duration)
	// Clear resets the transport's error state (device clear).
	Clear() error
	// AssertTrigger issues a bus trigger to the instrument.
	AssertTrigger() error
}
