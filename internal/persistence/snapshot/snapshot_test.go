package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "42.snap.zst")
	want := SnapshotV1{
		Header:   Header{Version: Version, MatchID: "m1", Tick: 42},
		Seed:     7,
		TickRate: 10,
		Rules:    RulesV1{Length: 120, Width: 80, GoalWidth: 10, GoalInset: 10, MouthMinY: 30, MouthMaxY: 50, ShotTarget: "fixed"},
		Players: []PlayerV1{
			{Team: 1, Index: 0, Role: "GOALKEEPER", Pos: [2]float64{16, 40}, StartPos: [2]float64{15, 40}},
			{Team: 2, Index: 0, Role: "GOALKEEPER", Pos: [2]float64{105, 41}, StartPos: [2]float64{105, 40}, HasBall: true},
		},
		Ball:     [2]float64{104, 40.5},
		Score:    [2]int{2, 1},
		Kickoffs: 4,
	}
	if err := WriteSnapshot(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h != want.Header {
		t.Fatalf("header mismatch: got=%+v want=%+v", h, want.Header)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot mismatch:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestReadSnapshot_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.snap.zst")
	if err := WriteSnapshot(path, SnapshotV1{Header: Header{Version: 99, Tick: 1}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}
