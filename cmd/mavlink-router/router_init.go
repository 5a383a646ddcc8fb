package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ampio/go-mavlink/internal/frame"
	"github.com/ampio/go-mavlink/internal/routing"
	"github.com/ampio/go-mavlink/internal/signing"
	"github.com/ampio/go-mavlink/internal/transport"
	"github.com/ampio/go-mavlink/pkg/common"
)

func protocolVersion(s string) frame.Version {
	if s == "v1" {
		return frame.V1
	}
	return frame.V2
}

func signingConfig(cfg *appConfig) (*signing.Config, error) {
	if cfg.signingKeyHex == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(cfg.signingKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode signing-key: %w", err)
	}
	var key [32]byte
	copy(key[:], raw)
	return &signing.Config{SecretKey: key, SignOutgoing: cfg.signOutgoing, AllowUnsigned: cfg.allowUnsigned}, nil
}

// initRouter opens every configured link, registers it with a routing.Router,
// and launches one ingest goroutine per link that forwards decoded v2 frames
// to every other link. It returns the router and a cleanup
// function that closes every link and waits for the ingest goroutines to
// exit.
func initRouter(ctx context.Context, cfg *appConfig, l *slog.Logger) (*routing.Router, func(), error) {
	accept := frame.ReadAny()
	if !cfg.allowAnyVersion {
		accept = frame.ReadSingle(protocolVersion(cfg.protocolVersion))
	}
	signCfg, err := signingConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	policy := routing.PolicyDrop
	if cfg.routingPolicy == "kick" {
		policy = routing.PolicyKick
	}
	router := routing.New(policy, cfg.routingBuffer)

	ms := common.Dialect{}
	var wg sync.WaitGroup
	var mu sync.Mutex
	var conns []transport.Connection

	opened := 0
	for i, addrStr := range cfg.links {
		id := fmt.Sprintf("link%d", i)
		conn, err := transport.Open(addrStr, accept, protocolVersion(cfg.protocolVersion))
		if err != nil {
			l.Error("link_open_failed", "link", id, "addr", addrStr, "error", err)
			continue
		}
		if signCfg != nil {
			conn.SetupSigning(signCfg)
		}
		mu.Lock()
		conns = append(conns, conn)
		mu.Unlock()
		router.AddLink(ctx, id, conn)
		opened++

		wg.Add(1)
		go func(id string, conn transport.Connection) {
			defer wg.Done()
			if err := router.RunIngest(ctx, id, conn, ms); err != nil && ctx.Err() == nil {
				l.Warn("link_ingest_stopped", "link", id, "error", err)
			}
		}(id, conn)
		l.Info("link_opened", "link", id, "addr", addrStr)
	}
	if opened < 2 {
		for _, c := range conns {
			_ = c.Close()
		}
		return nil, nil, fmt.Errorf("only %d of %d links opened successfully, need at least 2", opened, len(cfg.links))
	}

	cleanup := func() {
		mu.Lock()
		for _, c := range conns {
			_ = c.Close()
		}
		mu.Unlock()
		wg.Wait()
	}
	return router, cleanup, nil
}
