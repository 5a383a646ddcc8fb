package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ampio/go-mavlink/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"resync", snap.Resync,
					"crc_failures", snap.CRCFailures,
					"unknown_messages", snap.UnknownMessage,
					"routing_drops", snap.RoutingDrops,
					"routing_kicks", snap.RoutingKicks,
					"active_links", snap.ActiveLinks,
					"queue_depth_max", snap.QueueDepthMax,
					"queue_depth_avg", snap.QueueDepthAvg,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
