package indi

import (
	"github.com/danmuck/indictl/internal/protocol/number"
)

// Member is one named value inside a vector. Concrete types are
// SwitchMember, TextMember, NumberMember, LightMember and BLOBMember.
type Member interface {
	Info() MemberInfo
	Kind() Kind
	clone() Member
}

// MemberInfo holds the fields shared by all member variants.
type MemberInfo struct {
	Name  string
	Label string
}

func (m MemberInfo) Info() MemberInfo { return m }

type SwitchMember struct {
	MemberInfo
	Value SwitchState
}

func (SwitchMember) Kind() Kind      { return KindSwitch }
func (m SwitchMember) clone() Member { return m }
func (m SwitchMember) On() bool      { return m.Value == SwitchOn }

type TextMember struct {
	MemberInfo
	Value string
}

func (TextMember) Kind() Kind      { return KindText }
func (m TextMember) clone() Member { return m }

type LightMember struct {
	MemberInfo
	Value State
}

func (LightMember) Kind() Kind      { return KindLight }
func (m LightMember) clone() Member { return m }

// NumberMember keeps the wire strings; they are validated on receipt so the
// float accessors only fail for fields the server never sent.
type NumberMember struct {
	MemberInfo
	Value  string
	Format string
	Min    string
	Max    string
	Step   string
}

func (NumberMember) Kind() Kind      { return KindNumber }
func (m NumberMember) clone() Member { return m }

func (m NumberMember) Float() (float64, error)     { return number.Parse(m.Value) }
func (m NumberMember) MinFloat() (float64, error)  { return number.Parse(m.Min) }
func (m NumberMember) MaxFloat() (float64, error)  { return number.Parse(m.Max) }
func (m NumberMember) StepFloat() (float64, error) { return number.Parse(m.Step) }

// Formatted renders Value through the member's format specifier.
func (m NumberMember) Formatted() (string, error) {
	return number.FormatString(m.Value, m.Format)
}

type BLOBMember struct {
	MemberInfo
	Data []byte
	// Size is the server-declared size; it may differ from len(Data) for compressed payloads.
	Size   int
	Format string
}

func (BLOBMember) Kind() Kind { return KindBLOB }

func (m BLOBMember) clone() Member {
	if m.Data != nil {
		data := make([]byte, len(m.Data))
		copy(data, m.Data)
		m.Data = data
	}
	return m
}
