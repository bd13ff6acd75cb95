package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is one of the six per-tick decisions a player can take.
// The set is closed: dispatchers reject anything else.
type Action string

const (
	ActionPass    Action = "PASS"
	ActionForward Action = "FORWARD"
	ActionReverse Action = "REVERSE"
	ActionRight   Action = "RIGHT"
	ActionLeft    Action = "LEFT"
	ActionShoot   Action = "SHOOT"
)

// Actions lists the action space in its canonical order.
var Actions = []Action{
	ActionPass,
	ActionForward,
	ActionReverse,
	ActionRight,
	ActionLeft,
	ActionShoot,
}

func (a Action) Valid() bool {
	switch a {
	case ActionPass, ActionForward, ActionReverse, ActionRight, ActionLeft, ActionShoot:
		return true
	}
	return false
}

func (a Action) String() string { return string(a) }

// ParseAction accepts the canonical upper-case names as well as lower-case
// spellings ("pass", "forward", ...).
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	// Keep the raw value so callers can report it; validation happens at dispatch.
	if p, err := ParseAction(s); err == nil {
		*a = p
		return nil
	}
	*a = Action(s)
	return nil
}
