package main

import "testing"

func baseConfig() *appConfig {
	return &appConfig{
		links:           []string{"tcpin::14550", "udpcast:255.255.255.255:14550"},
		dialect:         "common",
		protocolVersion: "v2",
		logFormat:       "text",
		logLevel:        "info",
		routingBuffer:   8,
		routingPolicy:   "drop",
	}
}

func TestConfigValidate_OK(t *testing.T) {
	if err := baseConfig().validate(); err != nil {
		t.Fatalf("expected ok got %v", err)
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*appConfig)
	}{
		{"tooFewLinks", func(c *appConfig) { c.links = c.links[:1] }},
		{"badDialect", func(c *appConfig) { c.dialect = "ardupilotmega" }},
		{"badProtocolVersion", func(c *appConfig) { c.protocolVersion = "v3" }},
		{"badFormat", func(c *appConfig) { c.logFormat = "xx" }},
		{"badLevel", func(c *appConfig) { c.logLevel = "nope" }},
		{"badPolicy", func(c *appConfig) { c.routingPolicy = "x" }},
		{"badRoutingBuffer", func(c *appConfig) { c.routingBuffer = 0 }},
		{"badSigningKeyLength", func(c *appConfig) { c.signingKeyHex = "deadbeef" }},
		{"signOutgoingWithoutKey", func(c *appConfig) { c.signOutgoing = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := baseConfig()
			tc.mod(c)
			if err := c.validate(); err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
		})
	}
}

func TestConfigValidate_NilReceiver(t *testing.T) {
	var c *appConfig
	if err := c.validate(); err == nil {
		t.Fatal("expected error for nil config")
	}
}
