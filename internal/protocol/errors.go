package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Match routing/state.
	ErrMatchBusy = "E_MATCH_BUSY"
	ErrBadSlot   = "E_BAD_SLOT"
	ErrSlotTaken = "E_SLOT_TAKEN"

	// Action layer.
	ErrBadAction = "E_BAD_ACTION"
	ErrStale     = "E_STALE"
	ErrInternal  = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrMatchBusy:       {},
	ErrBadSlot:         {},
	ErrSlotTaken:       {},
	ErrBadAction:       {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
