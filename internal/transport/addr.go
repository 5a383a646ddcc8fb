package transport

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme is one of the connection kinds named in the address grammar:
// tcpin:H:P | tcpout:H:P | udpin:H:P | udpout:H:P |
// udpcast:H:P | serial:PORT:BAUD | file:PATH.
type Scheme string

const (
	SchemeTCPIn   Scheme = "tcpin"
	SchemeTCPOut  Scheme = "tcpout"
	SchemeUDPIn   Scheme = "udpin"
	SchemeUDPOut  Scheme = "udpout"
	SchemeUDPCast Scheme = "udpcast"
	SchemeSerial  Scheme = "serial"
	SchemeFile    Scheme = "file"
)

// Address is a parsed connection string.
type Address struct {
	Scheme Scheme
	Host   string // tcp*/udp*
	Port   int    // tcp*/udp*
	Device string // serial
	Baud   int    // serial
	Path   string // file
}

// ParseAddress parses one address string per the Scheme grammar above.
func ParseAddress(s string) (Address, error) {
	scheme, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Address{}, fmt.Errorf("%w: %q: missing scheme", ErrConfig, s)
	}
	switch Scheme(scheme) {
	case SchemeTCPIn, SchemeTCPOut, SchemeUDPIn, SchemeUDPOut, SchemeUDPCast:
		host, portStr, ok := strings.Cut(rest, ":")
		if !ok {
			return Address{}, fmt.Errorf("%w: %q: expected host:port", ErrConfig, s)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q: invalid port: %v", ErrConfig, s, err)
		}
		return Address{Scheme: Scheme(scheme), Host: host, Port: port}, nil
	case SchemeSerial:
		dev, baudStr, ok := strings.Cut(rest, ":")
		if !ok {
			return Address{}, fmt.Errorf("%w: %q: expected device:baud", ErrConfig, s)
		}
		baud, err := strconv.Atoi(baudStr)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q: invalid baud: %v", ErrConfig, s, err)
		}
		return Address{Scheme: SchemeSerial, Device: dev, Baud: baud}, nil
	case SchemeFile:
		if rest == "" {
			return Address{}, fmt.Errorf("%w: %q: missing path", ErrConfig, s)
		}
		return Address{Scheme: SchemeFile, Path: rest}, nil
	default:
		return Address{}, fmt.Errorf("%w: %q: unsupported scheme %q", ErrConfig, s, scheme)
	}
}

func (a Address) hostPort() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
