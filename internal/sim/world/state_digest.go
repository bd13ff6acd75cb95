package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// stateDigest hashes everything that influences future ticks. Replays compare
// it tick by tick.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, w.kickoffs)
	digestWriteI64(h, &tmp, int64(w.score[0]))
	digestWriteI64(h, &tmp, int64(w.score[1]))
	digestWriteF64(h, &tmp, w.ball[0])
	digestWriteF64(h, &tmp, w.ball[1])

	for _, p := range w.players {
		digestWriteU64(h, &tmp, uint64(p.Team))
		digestWriteU64(h, &tmp, uint64(p.Index))
		digestWriteF64(h, &tmp, p.Pos[0])
		digestWriteF64(h, &tmp, p.Pos[1])
		h.Write([]byte{boolByte(p.HasBall)})
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
