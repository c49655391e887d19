package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// BookieAddress identifies a remote bookie. It is immutable once created.
type BookieAddress struct {
	Host string
	Port int
}

// ParseBookieAddress parses an address of the form host:port.
// A unix socket path (starting with "/" or "unix://") has port 0.
func ParseBookieAddress(addr string) (BookieAddress, error) {
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		return BookieAddress{Host: path}, nil
	}
	if strings.HasPrefix(addr, "/") {
		return BookieAddress{Host: addr}, nil
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return BookieAddress{}, fmt.Errorf("invalid bookie address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return BookieAddress{}, fmt.Errorf("invalid port in bookie address %q", addr)
	}
	return BookieAddress{Host: host, Port: port}, nil
}

// String returns the dialable form of the address
func (a BookieAddress) String() string {
	if a.IsUnix() {
		return a.Host
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// IsUnix reports whether the address is a unix socket path
func (a BookieAddress) IsUnix() bool {
	return a.Port == 0 && strings.HasPrefix(a.Host, "/")
}

// ScopeName returns the stats scope of the address (<host>_<port>)
func (a BookieAddress) ScopeName() string {
	return fmt.Sprintf("%s_%d", a.Host, a.Port)
}
