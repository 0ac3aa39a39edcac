package indi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/indictl/internal/protocol"
	"github.com/danmuck/indictl/internal/protocol/number"
)

var (
	ErrUnknownDevice  = errors.New("indi: unknown device")
	ErrUnknownVector  = errors.New("indi: unknown vector")
	ErrUnknownMember  = errors.New("indi: unknown member")
	ErrWrongKind      = errors.New("indi: wrong vector kind")
	ErrReadOnly       = errors.New("indi: vector is read-only")
	ErrRuleViolation  = errors.New("indi: switch rule violation")
	ErrInvalidValue   = errors.New("indi: invalid member value")
	ErrInvalidRequest = errors.New("indi: invalid request")
)

// timestampLen keeps whole seconds plus one fractional digit.
const timestampLen = 21

var newVectorTags = map[Kind]string{
	KindSwitch: protocol.TagNewSwitchVector,
	KindText:   protocol.TagNewTextVector,
	KindNumber: protocol.TagNewNumberVector,
	KindBLOB:   protocol.TagNewBLOBVector,
}

// BLOBUpload is one BLOB member submission. Size 0 means len(Data).
type BLOBUpload struct {
	Data   []byte
	Size   int
	Format string
}

// FormatTimestamp renders t as UTC ISO-8601 truncated to the wire budget.
func FormatTimestamp(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000000")
	if len(s) > timestampLen {
		s = s[:timestampLen]
	}
	return s
}

// BuildNewVector builds the newXVector element for a Switch, Text or Number
// vector and marks the vector Busy. ok is false (with a nil error) when the
// device or vector is disabled; nothing is built then.
func (s *Store) BuildNewVector(deviceName, vectorName string, ts time.Time, values map[string]string) (protocol.Element, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok, err := s.writableVector(deviceName, vectorName)
	if err != nil || !ok {
		return protocol.Element{}, ok, err
	}
	for name := range values {
		if _, ok := v.Members[name]; !ok {
			return protocol.Element{}, false, fmt.Errorf("%w: %s.%s.%s", ErrUnknownMember, deviceName, vectorName, name)
		}
	}

	var children []protocol.Element
	switch v.Kind {
	case KindSwitch:
		children, err = switchChildren(v, values)
	case KindText:
		children, err = textChildren(v, values)
	case KindNumber:
		children, err = numberChildren(v, values)
	default:
		err = fmt.Errorf("%w: %s vector %s.%s", ErrWrongKind, v.Kind, deviceName, vectorName)
	}
	if err != nil {
		return protocol.Element{}, false, err
	}
	return s.finishNewVector(v, ts, children), true, nil
}

// BuildNewBLOBVector builds a newBLOBVector carrying only the given members.
func (s *Store) BuildNewBLOBVector(deviceName, vectorName string, ts time.Time, blobs map[string]BLOBUpload) (protocol.Element, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok, err := s.writableVector(deviceName, vectorName)
	if err != nil || !ok {
		return protocol.Element{}, ok, err
	}
	if v.Kind != KindBLOB {
		return protocol.Element{}, false, fmt.Errorf("%w: %s vector %s.%s", ErrWrongKind, v.Kind, deviceName, vectorName)
	}
	if len(blobs) == 0 {
		return protocol.Element{}, false, fmt.Errorf("%w: no BLOB members", ErrInvalidValue)
	}

	names := make([]string, 0, len(blobs))
	for name := range blobs {
		if _, ok := v.Members[name]; !ok {
			return protocol.Element{}, false, fmt.Errorf("%w: %s.%s.%s", ErrUnknownMember, deviceName, vectorName, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	children := make([]protocol.Element, 0, len(names))
	for _, name := range names {
		up := blobs[name]
		size := up.Size
		if size == 0 {
			size = len(up.Data)
		}
		if size < 0 {
			return protocol.Element{}, false, fmt.Errorf("%w: negative size for %q", ErrInvalidValue, name)
		}
		child := protocol.NewElement(protocol.TagOneBLOB)
		child.SetAttr(protocol.AttrName, name)
		child.SetAttr(protocol.AttrSize, strconv.Itoa(size))
		child.SetAttr(protocol.AttrFormat, up.Format)
		child.Text = base64.StdEncoding.EncodeToString(up.Data)
		children = append(children, child)
	}
	return s.finishNewVector(v, ts, children), true, nil
}

// writableVector resolves a live vector for submission. Caller holds s.mu.
func (s *Store) writableVector(deviceName, vectorName string) (*Vector, bool, error) {
	d, ok := s.devices[deviceName]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceName)
	}
	v, ok := d.vectors[vectorName]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s.%s", ErrUnknownVector, deviceName, vectorName)
	}
	if !d.enabled() || !v.Enabled {
		return nil, false, nil
	}
	if !v.Writable() {
		return nil, false, fmt.Errorf("%w: %s.%s", ErrReadOnly, deviceName, vectorName)
	}
	return v, true, nil
}

func (s *Store) finishNewVector(v *Vector, ts time.Time, children []protocol.Element) protocol.Element {
	if ts.IsZero() {
		ts = s.now()
	}
	el := protocol.NewElement(newVectorTags[v.Kind])
	el.SetAttr(protocol.AttrDevice, v.Device)
	el.SetAttr(protocol.AttrName, v.Name)
	el.SetAttr(protocol.AttrTimestamp, FormatTimestamp(ts))
	el.Append(children...)

	v.State = StateBusy
	v.sentAt = s.now()
	v.timedOut = false
	return el
}

// switchChildren resends every member; Off members precede On members so a
// OneOfMany server never sees two On switches mid-update.
func switchChildren(v *Vector, values map[string]string) ([]protocol.Element, error) {
	final := make(map[string]SwitchState, len(v.Members))
	for name, m := range v.Members {
		final[name] = m.(SwitchMember).Value
	}
	for name, raw := range values {
		st, err := ParseSwitchState(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
		}
		final[name] = st
	}

	var off, on []string
	for name, st := range final {
		if st == SwitchOn {
			on = append(on, name)
		} else {
			off = append(off, name)
		}
	}
	switch v.Rule {
	case RuleOneOfMany:
		if len(on) != 1 {
			return nil, fmt.Errorf("%w: %s requires exactly one On, got %d", ErrRuleViolation, v.Rule, len(on))
		}
	case RuleAtMostOne:
		if len(on) > 1 {
			return nil, fmt.Errorf("%w: %s allows at most one On, got %d", ErrRuleViolation, v.Rule, len(on))
		}
	}
	sort.Strings(off)
	sort.Strings(on)

	out := make([]protocol.Element, 0, len(final))
	for _, name := range append(off, on...) {
		child := protocol.NewElement(protocol.TagOneSwitch)
		child.SetAttr(protocol.AttrName, name)
		child.Text = string(final[name])
		out = append(out, child)
	}
	return out, nil
}

func textChildren(v *Vector, values map[string]string) ([]protocol.Element, error) {
	out := make([]protocol.Element, 0, len(v.Members))
	for _, name := range v.MemberNames() {
		value := v.Members[name].(TextMember).Value
		if nv, ok := values[name]; ok {
			value = nv
		}
		child := protocol.NewElement(protocol.TagOneText)
		child.SetAttr(protocol.AttrName, name)
		child.Text = value
		out = append(out, child)
	}
	return out, nil
}

func numberChildren(v *Vector, values map[string]string) ([]protocol.Element, error) {
	out := make([]protocol.Element, 0, len(v.Members))
	for _, name := range v.MemberNames() {
		value := v.Members[name].(NumberMember).Value
		if nv, ok := values[name]; ok {
			nv = strings.TrimSpace(nv)
			if !number.Valid(nv) {
				return nil, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidValue, name, nv)
			}
			value = nv
		}
		child := protocol.NewElement(protocol.TagOneNumber)
		child.SetAttr(protocol.AttrName, name)
		child.Text = value
		out = append(out, child)
	}
	return out, nil
}

// BuildGetProperties builds a getProperties request. A vector name requires
// a device name.
func BuildGetProperties(deviceName, vectorName string) (protocol.Element, error) {
	if deviceName == "" && vectorName != "" {
		return protocol.Element{}, fmt.Errorf("%w: getProperties vector %q without device", ErrInvalidRequest, vectorName)
	}
	el := protocol.NewElement(protocol.TagGetProperties)
	el.SetAttr(protocol.AttrVersion, protocol.Version)
	el.SetAttrIf(protocol.AttrDevice, deviceName)
	el.SetAttrIf(protocol.AttrName, vectorName)
	return el, nil
}

// BuildEnableBLOB builds an enableBLOB element for a device or one vector.
func BuildEnableBLOB(mode BLOBMode, deviceName, vectorName string) (protocol.Element, error) {
	if _, err := ParseBLOBMode(string(mode)); err != nil {
		return protocol.Element{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if deviceName == "" {
		return protocol.Element{}, fmt.Errorf("%w: enableBLOB requires a device", ErrInvalidRequest)
	}
	el := protocol.NewElement(protocol.TagEnableBLOB)
	el.SetAttr(protocol.AttrDevice, deviceName)
	el.SetAttrIf(protocol.AttrName, vectorName)
	el.Text = string(mode)
	return el, nil
}
