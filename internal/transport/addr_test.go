package transport

import (
	"errors"
	"testing"
)

func TestParseAddressValid(t *testing.T) {
	tests := []struct {
		in   string
		want Address
	}{
		{"tcpin::14550", Address{Scheme: SchemeTCPIn, Host: "", Port: 14550}},
		{"tcpout:192.168.1.1:5760", Address{Scheme: SchemeTCPOut, Host: "192.168.1.1", Port: 5760}},
		{"udpin::14550", Address{Scheme: SchemeUDPIn, Host: "", Port: 14550}},
		{"udpout:10.0.0.5:14551", Address{Scheme: SchemeUDPOut, Host: "10.0.0.5", Port: 14551}},
		{"udpcast:255.255.255.255:14550", Address{Scheme: SchemeUDPCast, Host: "255.255.255.255", Port: 14550}},
		{"serial:/dev/ttyUSB0:57600", Address{Scheme: SchemeSerial, Device: "/dev/ttyUSB0", Baud: 57600}},
		{"file:/tmp/capture.bin", Address{Scheme: SchemeFile, Path: "/tmp/capture.bin"}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAddress(tc.in)
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseAddress(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseAddressInvalid(t *testing.T) {
	tests := []string{
		"",
		"bogus",
		"tcpin:nocolon",
		"tcpin:host:notaport",
		"serial:/dev/ttyUSB0",
		"serial:/dev/ttyUSB0:fast",
		"file:",
		"quic::14550",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseAddress(in); err == nil {
				t.Fatalf("ParseAddress(%q): expected error", in)
			} else if !errors.Is(err, ErrConfig) {
				t.Fatalf("ParseAddress(%q): error %v does not wrap ErrConfig", in, err)
			}
		})
	}
}

func TestAddressHostPort(t *testing.T) {
	a := Address{Host: "127.0.0.1", Port: 14550}
	if got, want := a.hostPort(), "127.0.0.1:14550"; got != want {
		t.Fatalf("hostPort() = %q, want %q", got, want)
	}
}
