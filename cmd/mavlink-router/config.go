package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// linkList collects repeated -link flags into an ordered slice, the
// stdlib flag.Value pattern for accepting a flag more than once.
type linkList []string

func (l *linkList) String() string { return strings.Join(*l, ",") }
func (l *linkList) Set(v string) error {
	if v == "" {
		return errors.New("empty -link value")
	}
	*l = append(*l, v)
	return nil
}

type appConfig struct {
	links           []string
	dialect         string
	protocolVersion string
	allowAnyVersion bool
	signingKeyHex   string
	signOutgoing    bool
	allowUnsigned   bool
	routingBuffer   int
	routingPolicy   string
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
	mdnsEnable      bool
	mdnsName        string
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	var links linkList
	flag.Var(&links, "link", "Connection address, e.g. tcpin::14550, udpcast:192.168.1.255:14550, serial:/dev/ttyUSB0:57600 (repeatable)")
	dialect := flag.String("dialect", "common", "Dialect package to route against")
	protocolVersion := flag.String("protocol-version", "v2", "Outgoing protocol version: v1|v2")
	allowAnyVersion := flag.Bool("allow-any-version", true, "Accept both v1 and v2 frames on every link")
	signingKeyHex := flag.String("signing-key", "", "Hex-encoded 32-byte signing secret; empty disables signing")
	signOutgoing := flag.Bool("sign-outgoing", false, "Sign frames this router originates (requires -signing-key)")
	allowUnsigned := flag.Bool("allow-unsigned", true, "Accept unsigned v2 frames when signing is configured")
	routingBuffer := flag.Int("routing-buffer", 256, "Per-link outgoing frame buffer")
	routingPolicy := flag.String("routing-policy", "drop", "Backpressure policy: drop|kick")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters")
	mdnsEnable := flag.Bool("mdns-enable", false, "Enable mDNS advertisement of this router")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default mavlink-router-<hostname>)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.links = links
	cfg.dialect = *dialect
	cfg.protocolVersion = *protocolVersion
	cfg.allowAnyVersion = *allowAnyVersion
	cfg.signingKeyHex = *signingKeyHex
	cfg.signOutgoing = *signOutgoing
	cfg.allowUnsigned = *allowUnsigned
	cfg.routingBuffer = *routingBuffer
	cfg.routingPolicy = *routingPolicy
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// validate performs basic semantic validation of the parsed configuration.
// It does not attempt to open any link – only checks values/ranges.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if len(c.links) < 2 {
		return fmt.Errorf("at least two -link addresses are required to route between, got %d", len(c.links))
	}
	switch c.dialect {
	case "common":
	default:
		return fmt.Errorf("unknown dialect: %s", c.dialect)
	}
	switch c.protocolVersion {
	case "v1", "v2":
	default:
		return fmt.Errorf("invalid protocol-version: %s", c.protocolVersion)
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	switch c.routingPolicy {
	case "drop", "kick":
	default:
		return fmt.Errorf("invalid routing-policy: %s", c.routingPolicy)
	}
	if c.routingBuffer <= 0 {
		return fmt.Errorf("routing-buffer must be > 0 (got %d)", c.routingBuffer)
	}
	if c.signingKeyHex != "" && len(c.signingKeyHex) != 64 {
		return fmt.Errorf("signing-key must be 64 hex characters (32 bytes), got %d", len(c.signingKeyHex))
	}
	if c.signOutgoing && c.signingKeyHex == "" {
		return errors.New("sign-outgoing requires -signing-key")
	}
	return nil
}

// applyEnvOverrides maps MAVLINK_ROUTER_* environment variables to config
// fields unless a corresponding flag was explicitly set (flag wins).
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	if _, ok := set["link"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_LINKS"); ok && v != "" {
			c.links = strings.Split(v, ",")
		}
	}
	if _, ok := set["dialect"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_DIALECT"); ok && v != "" {
			c.dialect = v
		}
	}
	if _, ok := set["protocol-version"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_PROTOCOL_VERSION"); ok && v != "" {
			c.protocolVersion = v
		}
	}
	if _, ok := set["signing-key"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_SIGNING_KEY"); ok && v != "" {
			c.signingKeyHex = v
		}
	}
	if _, ok := set["routing-buffer"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_ROUTING_BUFFER"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.routingBuffer = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid MAVLINK_ROUTER_ROUTING_BUFFER: %w", err)
			}
		}
	}
	if _, ok := set["routing-policy"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_ROUTING_POLICY"); ok && v != "" {
			c.routingPolicy = v
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("MAVLINK_ROUTER_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid MAVLINK_ROUTER_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	return firstErr
}
