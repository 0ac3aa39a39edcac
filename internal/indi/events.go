package indi

import "time"

// EventType names each event variant.
type EventType string

const (
	EventMessage       EventType = "Message"
	EventDelete        EventType = "Delete"
	EventDefineSwitch  EventType = "DefineSwitch"
	EventDefineText    EventType = "DefineText"
	EventDefineNumber  EventType = "DefineNumber"
	EventDefineLight   EventType = "DefineLight"
	EventDefineBLOB    EventType = "DefineBLOB"
	EventSetSwitch     EventType = "SetSwitch"
	EventSetText       EventType = "SetText"
	EventSetNumber     EventType = "SetNumber"
	EventSetLight      EventType = "SetLight"
	EventSetBLOB       EventType = "SetBLOB"
	EventVectorTimeout EventType = "VectorTimeOut"
)

var defineTypes = map[Kind]EventType{
	KindSwitch: EventDefineSwitch,
	KindText:   EventDefineText,
	KindNumber: EventDefineNumber,
	KindLight:  EventDefineLight,
	KindBLOB:   EventDefineBLOB,
}

var setTypes = map[Kind]EventType{
	KindSwitch: EventSetSwitch,
	KindText:   EventSetText,
	KindNumber: EventSetNumber,
	KindLight:  EventSetLight,
	KindBLOB:   EventSetBLOB,
}

// Event is one decoded (or locally generated) occurrence delivered to the
// client handler. Concrete types: MessageEvent, DeleteEvent, DefineEvent,
// SetEvent, VectorTimeoutEvent.
type Event interface {
	Type() EventType
	Info() EventInfo
}

// EventInfo holds the fields shared by all events. Device is empty for
// client-level messages.
type EventInfo struct {
	Device    string
	Timestamp time.Time
}

func (e EventInfo) Info() EventInfo { return e }

// MessageEvent carries a server message or a locally injected status line.
type MessageEvent struct {
	EventInfo
	Text  string
	Local bool
}

func (MessageEvent) Type() EventType { return EventMessage }

// DeleteEvent reports vectors disabled by delProperty. Vector is empty when
// the whole device was disabled; Vectors lists every vector affected.
type DeleteEvent struct {
	EventInfo
	Vector  string
	Vectors []string
	Message string
}

func (DeleteEvent) Type() EventType { return EventDelete }

// DefineEvent reports a created or redefined vector.
type DefineEvent struct {
	EventInfo
	Vector  Vector
	Created bool
}

func (e DefineEvent) Type() EventType { return defineTypes[e.Vector.Kind] }

// SetEvent reports new values for an existing vector. Members lists the
// member names carried by the element.
type SetEvent struct {
	EventInfo
	Vector  Vector
	Members []string
}

func (e SetEvent) Type() EventType { return setTypes[e.Vector.Kind] }

// VectorTimeoutEvent is advisory: a submitted vector stayed Busy past its
// window. The handler decides whether to mark it Alert.
type VectorTimeoutEvent struct {
	EventInfo
	Vector  string
	Kind    Kind
	Elapsed time.Duration
	Window  time.Duration
}

func (VectorTimeoutEvent) Type() EventType { return EventVectorTimeout }
