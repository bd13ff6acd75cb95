package world

import (
	"context"
	"errors"
)

var (
	ErrSnapshotUnavailable  = errors.New("admin snapshot not available")
	ErrSnapshotNoSink       = errors.New("snapshot sink not configured")
	ErrSnapshotBackpressure = errors.New("snapshot sink backpressure")
)

type adminSnapshotReq struct {
	Resp chan adminSnapshotResp
}

type adminSnapshotResp struct {
	Tick uint64
	Err  error
}

// RequestSnapshot asks the world loop goroutine to enqueue a snapshot of the
// last completed tick. It is safe to call from other goroutines (e.g. HTTP handlers).
func (w *World) RequestSnapshot(ctx context.Context) (tick uint64, err error) {
	if w == nil || w.admin == nil {
		return 0, ErrSnapshotUnavailable
	}
	resp := make(chan adminSnapshotResp, 1)

	select {
	case w.admin <- adminSnapshotReq{Resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case r := <-resp:
		return r.Tick, r.Err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (w *World) handleAdminSnapshotRequests(reqs []adminSnapshotReq) {
	if len(reqs) == 0 {
		return
	}
	snapTick := uint64(0)
	if cur := w.tick.Load(); cur > 0 {
		snapTick = cur - 1
	}

	var err error
	if w.snapshotSink == nil {
		err = ErrSnapshotNoSink
	} else {
		select {
		case w.snapshotSink <- w.ExportSnapshot(snapTick):
		default:
			err = ErrSnapshotBackpressure
		}
	}

	for _, r := range reqs {
		if r.Resp == nil {
			continue
		}
		select {
		case r.Resp <- adminSnapshotResp{Tick: snapTick, Err: err}:
		default:
			// Client timed out; don't block the sim loop.
		}
	}
}
