// internal/gateway/gateway.go
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/change"
	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/connect"
	"github.com/tamzrod/modbus-gateway/internal/metrics"
	"github.com/tamzrod/modbus-gateway/internal/poller"
	"github.com/tamzrod/modbus-gateway/internal/status"
	"github.com/tamzrod/modbus-gateway/internal/writer"
)

// Connector yields a connected transport. *connect.Manager implements it.
type Connector interface {
	Connect(ctx context.Context) (connect.Conn, error)
}

// Gateway runs the single polling loop: connect once, then poll, evaluate,
// emit and sleep until ctx is done.
type Gateway struct {
	Config    *config.Config // validated and normalized
	Connector Connector
	Sink      writer.Writer

	// Metrics is optional.
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// RunOnce stops after the first cycle.
	RunOnce bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Run blocks until ctx is done, or after one cycle with RunOnce.
// A finished run-once returns nil; cancellation returns ctx.Err().
func (g *Gateway) Run(ctx context.Context) error {
	if g.Config == nil || g.Connector == nil || g.Sink == nil {
		return errors.New("gateway: config, connector and sink required")
	}
	log := g.logger()

	// ---- connect (blocks until success) ----
	conn, err := g.Connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn("close connection failed", "err", err)
		}
	}()

	// ---- poller ----
	p, err := poller.Build(g.Config, conn)
	if err != nil {
		return err
	}
	p.SetClock(g.clock)

	// ---- loop-owned state ----
	st := change.NewState(g.clock())
	eng := change.Engine{HeartbeatEvery: g.Config.HeartbeatEvery()}
	tracker := status.NewTracker()

	log.Info("polling started",
		"endpoint", g.Config.Endpoint(),
		"commands", len(g.Config.Commands),
		"poll_interval", g.Config.PollEvery(),
		"heartbeat_interval", g.Config.HeartbeatEvery(),
		"run_once", g.RunOnce,
	)

	return p.Run(ctx, g.Config.PollEvery(), g.RunOnce, func(snap poller.Snapshot) {
		g.handle(st, eng, tracker, snap)
	})
}

// handle is one cycle after the reads: diff, emit, status, metrics.
func (g *Gateway) handle(st *change.State, eng change.Engine, tracker *status.Tracker, snap poller.Snapshot) {
	log := g.logger()
	now := g.clock()

	res := eng.Evaluate(st, snap, now)
	for _, ev := range res.Events() {
		if err := g.Sink.Write(ev); err != nil {
			log.Error("event write failed", "type", ev.Type, "err", err)
		}
	}

	cmdErrs := snap.CommandErrors()
	for _, err := range cmdErrs {
		log.Warn("command failed", "err", err)
	}

	s, changed := tracker.Observe(cmdErrs, snap.At)
	if changed {
		if s.OK() {
			log.Info("device status changed", "status", s)
		} else {
			log.Warn("device status changed", "status", s)
		}
	}

	log.Debug("cycle done",
		"changed", len(res.Changed),
		"errors", len(snap.Errors),
		"heartbeat", res.Heartbeat != nil,
	)

	if g.Metrics != nil {
		g.Metrics.ObserveCycle(snap, now.Sub(snap.At))
		g.Metrics.ObserveStatus(s)
	}
}

func (g *Gateway) clock() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Gateway) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
