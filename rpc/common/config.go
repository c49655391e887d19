package common

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Formatting helper
// --------------------------------------------------------------------------

// configPrinter renders the String() output of the configuration structs
type configPrinter struct {
	sb strings.Builder
}

func (p *configPrinter) section(title string) {
	p.sb.WriteString("\n")
	p.sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
}

func (p *configPrinter) field(name, value string) {
	p.sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
}

func disabledOr(d time.Duration) string {
	if d <= 0 {
		return "disabled"
	}
	return d.String()
}

// --------------------------------------------------------------------------
// Socket configuration (shared by client and server)
// --------------------------------------------------------------------------

// SocketConf holds buffer settings applied to every socket
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds tcp specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of an (in-memory) bookie.
type ServerConfig struct {
	// Endpoint is the address the server listens on (host:port or socket path)
	Endpoint string

	// ReadOnly rejects all adds with EREADONLY
	ReadOnly bool

	// TimeoutSecond is the idle read timeout of a connection (0 = none)
	TimeoutSecond int64

	// WorkersPerConn limits the requests handled in parallel per connection
	WorkersPerConn int

	// MaxFrameSize is the largest accepted frame in bytes
	MaxFrameSize int

	SocketConf SocketConf
	TCPConf    TCPConf

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	p := &configPrinter{}

	p.section("RPC Server")
	p.field("Endpoint", c.Endpoint)
	p.field("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	p.field("Workers Per Conn", fmt.Sprintf("%d", c.WorkersPerConn))
	p.field("Max Frame Size", fmt.Sprintf("%d bytes", c.MaxFrameSize))

	p.section("Bookie")
	p.field("Read Only", fmt.Sprintf("%t", c.ReadOnly))

	p.section("Socket")
	p.field("Write Buffer", fmt.Sprintf("%d bytes", c.SocketConf.WriteBufferSize))
	p.field("Read Buffer", fmt.Sprintf("%d bytes", c.SocketConf.ReadBufferSize))
	p.field("TCP No Delay", fmt.Sprintf("%t", c.TCPConf.TCPNoDelay))

	p.section("Logging")
	p.field("Log Level", c.LogLevel)

	return p.sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings of the connection to one bookie
type ClientTransportConfig struct {
	Endpoint       string
	ConnectTimeout time.Duration
	MaxFrameSize   int
	SocketConf     SocketConf
	TCPConf        TCPConf
}

// ClientConfig holds the settings of a per channel bookie client
type ClientConfig struct {
	// AddEntryTimeout is the age after which an unanswered add is errored out (<= 0 disables)
	AddEntryTimeout time.Duration
	// ReadEntryTimeout is the age after which an unanswered read is errored out (<= 0 disables)
	ReadEntryTimeout time.Duration
	// TimeoutTaskInterval is the period of the timeout sweep (<= 0 disables the sweeper)
	TimeoutTaskInterval time.Duration
	// NumWorkers is the number of ordered callback queues (<= 0 uses the number of cpus)
	NumWorkers int

	Transport ClientTransportConfig
}

// DefaultClientConfig returns the client configuration used when nothing is set
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		AddEntryTimeout:     5 * time.Second,
		ReadEntryTimeout:    5 * time.Second,
		TimeoutTaskInterval: time.Second,
		NumWorkers:          runtime.NumCPU(),
		Transport: ClientTransportConfig{
			ConnectTimeout: 10 * time.Second,
			MaxFrameSize:   MaxFrameSize,
			SocketConf: SocketConf{
				WriteBufferSize: 512 * 1024,
				ReadBufferSize:  512 * 1024,
			},
			TCPConf: TCPConf{
				TCPNoDelay:      true,
				TCPKeepAliveSec: 30,
			},
		},
	}
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	p := &configPrinter{}

	p.section("Client Configuration")
	p.field("Add Entry Timeout", disabledOr(c.AddEntryTimeout))
	p.field("Read Entry Timeout", disabledOr(c.ReadEntryTimeout))
	p.field("Timeout Task Interval", disabledOr(c.TimeoutTaskInterval))
	p.field("Callback Workers", fmt.Sprintf("%d", max(1, c.NumWorkers)))

	p.section("Transport")
	p.field("Endpoint", c.Transport.Endpoint)
	p.field("Connect Timeout", disabledOr(c.Transport.ConnectTimeout))
	p.field("Max Frame Size", fmt.Sprintf("%d bytes", c.Transport.MaxFrameSize))
	p.field("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.WriteBufferSize))
	p.field("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.ReadBufferSize))
	p.field("TCP No Delay", fmt.Sprintf("%t", c.Transport.TCPConf.TCPNoDelay))
	p.field("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPConf.TCPKeepAliveSec))
	p.field("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPConf.TCPLingerSec))

	return p.sb.String()
}
