package main

import (
	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/sim/world"
)

func protocolAct(tick uint64, ra world.RecordedAction) protocol.ActMsg {
	return protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Action:          ra.Action,
	}
}
