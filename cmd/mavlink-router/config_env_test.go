package main

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvOverrides_Basic(t *testing.T) {
	base := baseConfig()
	base.links = nil

	os.Setenv("MAVLINK_ROUTER_LINKS", "tcpin::14550,tcpout:127.0.0.1:14551")
	os.Setenv("MAVLINK_ROUTER_MDNS_ENABLE", "true")
	os.Setenv("MAVLINK_ROUTER_ROUTING_BUFFER", "1024")
	os.Setenv("MAVLINK_ROUTER_LOG_METRICS_INTERVAL", "5s")
	t.Cleanup(func() {
		os.Unsetenv("MAVLINK_ROUTER_LINKS")
		os.Unsetenv("MAVLINK_ROUTER_MDNS_ENABLE")
		os.Unsetenv("MAVLINK_ROUTER_ROUTING_BUFFER")
		os.Unsetenv("MAVLINK_ROUTER_LOG_METRICS_INTERVAL")
	})
	if err := applyEnvOverrides(base, map[string]struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(base.links) != 2 || base.links[0] != "tcpin::14550" {
		t.Fatalf("expected links override, got %v", base.links)
	}
	if !base.mdnsEnable {
		t.Fatal("expected mdnsEnable true")
	}
	if base.routingBuffer != 1024 {
		t.Fatalf("expected routingBuffer 1024 got %d", base.routingBuffer)
	}
	if base.logMetricsEvery != 5*time.Second {
		t.Fatalf("expected logMetricsEvery 5s got %v", base.logMetricsEvery)
	}
}

func TestApplyEnvOverrides_FlagPrecedence(t *testing.T) {
	base := &appConfig{routingBuffer: 256}
	os.Setenv("MAVLINK_ROUTER_ROUTING_BUFFER", "9999")
	t.Cleanup(func() { os.Unsetenv("MAVLINK_ROUTER_ROUTING_BUFFER") })
	if err := applyEnvOverrides(base, map[string]struct{}{"routing-buffer": {}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if base.routingBuffer != 256 {
		t.Fatalf("expected routingBuffer unchanged 256 got %d", base.routingBuffer)
	}
}

func TestApplyEnvOverrides_BadInt(t *testing.T) {
	base := &appConfig{routingBuffer: 256}
	os.Setenv("MAVLINK_ROUTER_ROUTING_BUFFER", "notint")
	t.Cleanup(func() { os.Unsetenv("MAVLINK_ROUTER_ROUTING_BUFFER") })
	if err := applyEnvOverrides(base, map[string]struct{}{}); err == nil {
		t.Fatal("expected error for bad integer")
	}
}
