package indi

import (
	"math"
	"sort"
	"time"
)

// Vector is one property: a typed group of members plus metadata.
// Values handed out by the Store and carried by events are deep copies.
type Vector struct {
	Device    string
	Name      string
	Kind      Kind
	Label     string
	Group     string
	State     State
	Perm      Permission
	Rule      Rule
	Timeout   float64
	Timestamp time.Time
	Message   string
	Enabled   bool
	Members   map[string]Member

	sentAt   time.Time
	timedOut bool
}

// Clone returns a copy that shares no mutable state with v.
func (v Vector) Clone() Vector {
	out := v
	out.Members = make(map[string]Member, len(v.Members))
	for name, m := range v.Members {
		out.Members[name] = m.clone()
	}
	return out
}

// MemberNames returns member names in display (name) order.
func (v Vector) MemberNames() []string {
	names := make([]string, 0, len(v.Members))
	for name := range v.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v Vector) Member(name string) (Member, bool) {
	m, ok := v.Members[name]
	if !ok {
		return nil, false
	}
	return m.clone(), true
}

func (v Vector) Switch(name string) (SwitchMember, bool) {
	m, ok := v.Members[name].(SwitchMember)
	return m, ok
}

func (v Vector) Text(name string) (TextMember, bool) {
	m, ok := v.Members[name].(TextMember)
	return m, ok
}

func (v Vector) Number(name string) (NumberMember, bool) {
	m, ok := v.Members[name].(NumberMember)
	return m, ok
}

func (v Vector) Light(name string) (LightMember, bool) {
	m, ok := v.Members[name].(LightMember)
	return m, ok
}

func (v Vector) BLOB(name string) (BLOBMember, bool) {
	m, ok := v.Members[name].(BLOBMember)
	if !ok {
		return BLOBMember{}, false
	}
	return m.clone().(BLOBMember), true
}

// Writable reports whether the client may submit new values.
func (v Vector) Writable() bool {
	return v.Kind != KindLight && v.Perm != PermRO
}

// TimeoutWindow clamps a server-suggested timeout (seconds) into [min, max].
// A missing or non-positive suggestion uses max.
func TimeoutWindow(suggested float64, min, max time.Duration) time.Duration {
	if max < min {
		max = min
	}
	if suggested <= 0 || math.IsNaN(suggested) || suggested >= max.Seconds() {
		return max
	}
	d := time.Duration(suggested * float64(time.Second))
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
