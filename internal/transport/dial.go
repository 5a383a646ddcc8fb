package transport

import (
	"fmt"

	"github.com/ampio/go-mavlink/internal/frame"
)

// Open dispatches an address string to the matching connection
// constructor based on its Scheme.
func Open(addrStr string, accept frame.ReadVersion, protocol frame.Version) (Connection, error) {
	addr, err := ParseAddress(addrStr)
	if err != nil {
		return nil, err
	}
	switch addr.Scheme {
	case SchemeTCPIn:
		return ListenTCPIn(addr, accept, protocol)
	case SchemeTCPOut:
		return DialTCPOut(addr, accept, protocol)
	case SchemeUDPIn:
		return ListenUDPIn(addr, accept, protocol)
	case SchemeUDPOut:
		return DialUDPOut(addr, accept, protocol)
	case SchemeUDPCast:
		return DialUDPBroadcast(addr, accept, protocol)
	case SchemeSerial:
		return OpenSerial(addr, accept, protocol)
	case SchemeFile:
		return OpenFile(addr, accept, protocol)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrConfig, addr.Scheme)
	}
}
