package indi

import (
	"fmt"
	"strings"
)

// Kind is the vector/member variant. It never changes for a live vector.
type Kind int

const (
	KindSwitch Kind = iota + 1
	KindText
	KindNumber
	KindLight
	KindBLOB
)

func (k Kind) String() string {
	switch k {
	case KindSwitch:
		return "Switch"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindLight:
		return "Light"
	case KindBLOB:
		return "BLOB"
	default:
		return "unknown"
	}
}

// State is the vector state, also the value domain of Light members.
type State string

const (
	StateIdle  State = "Idle"
	StateOk    State = "Ok"
	StateBusy  State = "Busy"
	StateAlert State = "Alert"
)

func ParseState(raw string) (State, error) {
	switch s := State(strings.TrimSpace(raw)); s {
	case StateIdle, StateOk, StateBusy, StateAlert:
		return s, nil
	default:
		return "", fmt.Errorf("invalid state %q", raw)
	}
}

// Permission is the client's access to a vector.
type Permission string

const (
	PermRO Permission = "ro"
	PermWO Permission = "wo"
	PermRW Permission = "rw"
)

func ParsePermission(raw string) (Permission, error) {
	switch p := Permission(strings.TrimSpace(raw)); p {
	case PermRO, PermWO, PermRW:
		return p, nil
	default:
		return "", fmt.Errorf("invalid perm %q", raw)
	}
}

// Rule constrains how many switches of a vector may be On.
type Rule string

const (
	RuleOneOfMany Rule = "OneOfMany"
	RuleAtMostOne Rule = "AtMostOne"
	RuleAnyOfMany Rule = "AnyOfMany"
)

func ParseRule(raw string) (Rule, error) {
	switch r := Rule(strings.TrimSpace(raw)); r {
	case RuleOneOfMany, RuleAtMostOne, RuleAnyOfMany:
		return r, nil
	default:
		return "", fmt.Errorf("invalid rule %q", raw)
	}
}

// SwitchState is the value of a Switch member.
type SwitchState string

const (
	SwitchOn  SwitchState = "On"
	SwitchOff SwitchState = "Off"
)

func ParseSwitchState(raw string) (SwitchState, error) {
	switch s := SwitchState(strings.TrimSpace(raw)); s {
	case SwitchOn, SwitchOff:
		return s, nil
	default:
		return "", fmt.Errorf("invalid switch value %q", raw)
	}
}

// BLOBMode is the enableBLOB policy sent to the server.
type BLOBMode string

const (
	BLOBNever BLOBMode = "Never"
	BLOBAlso  BLOBMode = "Also"
	BLOBOnly  BLOBMode = "Only"
)

func ParseBLOBMode(raw string) (BLOBMode, error) {
	switch m := BLOBMode(strings.TrimSpace(raw)); m {
	case BLOBNever, BLOBAlso, BLOBOnly:
		return m, nil
	default:
		return "", fmt.Errorf("invalid BLOB mode %q", raw)
	}
}
