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

// ErrDecode is the single decode-error kind. The offending element is
// discarded; the session continues.
var ErrDecode = errors.New("indi: decode error")

// DecodeError describes why one element was rejected.
type DecodeError struct {
	Tag    string
	Device string
	Vector string
	Cause  string
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("indi: decode ")
	b.WriteString(e.Tag)
	if e.Device != "" {
		fmt.Fprintf(&b, " device=%q", e.Device)
	}
	if e.Vector != "" {
		fmt.Fprintf(&b, " vector=%q", e.Vector)
	}
	b.WriteString(": ")
	b.WriteString(e.Cause)
	return b.String()
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

func decodeErr(el protocol.Element, format string, args ...any) error {
	return &DecodeError{
		Tag:    el.Tag,
		Device: el.AttrOr(protocol.AttrDevice, ""),
		Vector: el.AttrOr(protocol.AttrName, ""),
		Cause:  fmt.Sprintf(format, args...),
	}
}

type decodeFunc func(s *Store, el protocol.Element, now time.Time) (Event, error)

var defMemberTags = map[Kind]string{
	KindSwitch: protocol.TagDefSwitch,
	KindText:   protocol.TagDefText,
	KindNumber: protocol.TagDefNumber,
	KindLight:  protocol.TagDefLight,
	KindBLOB:   protocol.TagDefBLOB,
}

var oneMemberTags = map[Kind]string{
	KindSwitch: protocol.TagOneSwitch,
	KindText:   protocol.TagOneText,
	KindNumber: protocol.TagOneNumber,
	KindLight:  protocol.TagOneLight,
	KindBLOB:   protocol.TagOneBLOB,
}

var decoders = map[string]decodeFunc{
	protocol.TagMessage:         decodeMessage,
	protocol.TagDelProperty:     decodeDelete,
	protocol.TagDefSwitchVector: defineDecoder(KindSwitch),
	protocol.TagDefTextVector:   defineDecoder(KindText),
	protocol.TagDefNumberVector: defineDecoder(KindNumber),
	protocol.TagDefLightVector:  defineDecoder(KindLight),
	protocol.TagDefBLOBVector:   defineDecoder(KindBLOB),
	protocol.TagSetSwitchVector: setDecoder(KindSwitch),
	protocol.TagSetTextVector:   setDecoder(KindText),
	protocol.TagSetNumberVector: setDecoder(KindNumber),
	protocol.TagSetLightVector:  setDecoder(KindLight),
	protocol.TagSetBLOBVector:   setDecoder(KindBLOB),
}

// Decoder turns framed elements into events, mutating its Store.
// Decode must only be called from one goroutine.
type Decoder struct {
	store *Store
	now   func() time.Time
}

func NewDecoder(store *Store) *Decoder {
	return &Decoder{store: store, now: time.Now}
}

// Decode applies el to the store and returns the resulting event. On error
// the store is left unchanged.
func (d *Decoder) Decode(el protocol.Element) (Event, error) {
	fn, ok := decoders[el.Tag]
	if !ok {
		return nil, decodeErr(el, "unsupported element")
	}
	now := d.now().UTC()
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	return fn(d.store, el, now)
}

func decodeMessage(s *Store, el protocol.Element, now time.Time) (Event, error) {
	text, ok := el.Attr(protocol.AttrMessage)
	if !ok {
		return nil, decodeErr(el, "missing message attribute")
	}
	ts, _ := parseTimestamp(el, now)
	devName := strings.TrimSpace(el.AttrOr(protocol.AttrDevice, ""))
	msg := Message{Timestamp: ts, Device: devName, Text: text}
	if d, ok := s.devices[devName]; ok && devName != "" {
		d.messages.add(msg)
	} else {
		s.messages.add(msg)
	}
	return MessageEvent{
		EventInfo: EventInfo{Device: devName, Timestamp: ts},
		Text:      text,
	}, nil
}

func decodeDelete(s *Store, el protocol.Element, now time.Time) (Event, error) {
	devName := strings.TrimSpace(el.AttrOr(protocol.AttrDevice, ""))
	if devName == "" {
		return nil, decodeErr(el, "missing device")
	}
	d, ok := s.devices[devName]
	if !ok {
		return nil, decodeErr(el, "unknown device")
	}
	ts, _ := parseTimestamp(el, now)

	name := strings.TrimSpace(el.AttrOr(protocol.AttrName, ""))
	var affected []string
	if name == "" {
		if !d.enabled() {
			return nil, decodeErr(el, "device already deleted")
		}
		for vName, v := range d.vectors {
			if !v.Enabled {
				continue
			}
			disable(v)
			affected = append(affected, vName)
		}
		sort.Strings(affected)
	} else {
		v, ok := d.vectors[name]
		if !ok {
			return nil, decodeErr(el, "unknown vector")
		}
		if !v.Enabled {
			return nil, decodeErr(el, "vector already deleted")
		}
		disable(v)
		affected = []string{name}
	}

	text := el.AttrOr(protocol.AttrMessage, "")
	if text != "" {
		d.messages.add(Message{Timestamp: ts, Device: devName, Text: text})
	}
	return DeleteEvent{
		EventInfo: EventInfo{Device: devName, Timestamp: ts},
		Vector:    name,
		Vectors:   affected,
		Message:   text,
	}, nil
}

func disable(v *Vector) {
	v.Enabled = false
	v.sentAt = time.Time{}
	v.timedOut = false
}

func defineDecoder(kind Kind) decodeFunc {
	return func(s *Store, el protocol.Element, now time.Time) (Event, error) {
		devName, vecName, err := vectorIdentity(el)
		if err != nil {
			return nil, err
		}
		children := el.ChildrenByTag(defMemberTags[kind])
		if len(children) == 0 && kind != KindBLOB {
			return nil, decodeErr(el, "no %s members", defMemberTags[kind])
		}

		d := s.devices[devName]
		var existing *Vector
		if d != nil {
			existing = d.vectors[vecName]
		}
		created := existing == nil || !existing.Enabled

		var v Vector
		if created {
			v = Vector{
				Device:  devName,
				Name:    vecName,
				Kind:    kind,
				Label:   vecName,
				State:   StateIdle,
				Enabled: true,
				Members: make(map[string]Member, len(children)),
			}
		} else {
			if existing.Kind != kind {
				return nil, decodeErr(el, "vector already defined as %s", existing.Kind)
			}
			v = existing.Clone()
		}

		if err := applyDefineAttrs(&v, el, created); err != nil {
			return nil, decodeErr(el, "%v", err)
		}
		ts, err := applyCommonAttrs(&v, el, created, now)
		if err != nil {
			return nil, decodeErr(el, "%v", err)
		}
		for _, child := range children {
			m, err := parseDefMember(kind, child, v.Members)
			if err != nil {
				return nil, decodeErr(el, "%v", err)
			}
			v.Members[m.Info().Name] = m
		}

		if d == nil {
			d = newDevice(devName)
			s.devices[devName] = d
		}
		stored := v
		d.vectors[vecName] = &stored
		if text, ok := el.Attr(protocol.AttrMessage); ok && text != "" {
			d.messages.add(Message{Timestamp: ts, Device: devName, Text: text})
		}
		return DefineEvent{
			EventInfo: EventInfo{Device: devName, Timestamp: ts},
			Vector:    stored.Clone(),
			Created:   created,
		}, nil
	}
}

func setDecoder(kind Kind) decodeFunc {
	return func(s *Store, el protocol.Element, now time.Time) (Event, error) {
		devName, vecName, err := vectorIdentity(el)
		if err != nil {
			return nil, err
		}
		d, ok := s.devices[devName]
		if !ok {
			return nil, decodeErr(el, "unknown device")
		}
		existing, ok := d.vectors[vecName]
		if !ok {
			return nil, decodeErr(el, "unknown vector")
		}
		if !existing.Enabled {
			return nil, decodeErr(el, "vector deleted")
		}
		if existing.Kind != kind {
			return nil, decodeErr(el, "vector is %s", existing.Kind)
		}
		children := el.ChildrenByTag(oneMemberTags[kind])
		if len(children) == 0 {
			return nil, decodeErr(el, "no %s members", oneMemberTags[kind])
		}

		v := existing.Clone()
		if raw, ok := el.Attr(protocol.AttrState); ok {
			st, err := ParseState(raw)
			if err != nil {
				return nil, decodeErr(el, "%v", err)
			}
			v.State = st
		}
		ts, err := applyCommonAttrs(&v, el, false, now)
		if err != nil {
			return nil, decodeErr(el, "%v", err)
		}
		names := make([]string, 0, len(children))
		for _, child := range children {
			name := strings.TrimSpace(child.AttrOr(protocol.AttrName, ""))
			prev, ok := v.Members[name]
			if !ok {
				return nil, decodeErr(el, "unknown member %q", name)
			}
			m, err := parseOneMember(kind, child, prev)
			if err != nil {
				return nil, decodeErr(el, "member %q: %v", name, err)
			}
			v.Members[name] = m
			names = append(names, name)
		}
		v.sentAt = time.Time{}
		v.timedOut = false

		*existing = v
		if text, ok := el.Attr(protocol.AttrMessage); ok && text != "" {
			d.messages.add(Message{Timestamp: ts, Device: devName, Text: text})
		}
		return SetEvent{
			EventInfo: EventInfo{Device: devName, Timestamp: ts},
			Vector:    existing.Clone(),
			Members:   names,
		}, nil
	}
}

func vectorIdentity(el protocol.Element) (string, string, error) {
	devName := strings.TrimSpace(el.AttrOr(protocol.AttrDevice, ""))
	if devName == "" {
		return "", "", decodeErr(el, "missing device")
	}
	vecName := strings.TrimSpace(el.AttrOr(protocol.AttrName, ""))
	if vecName == "" {
		return "", "", decodeErr(el, "missing vector name")
	}
	return devName, vecName, nil
}

// applyDefineAttrs merges define-only metadata. Absent attributes leave the
// current value alone; state/perm/rule are required on first definition.
func applyDefineAttrs(v *Vector, el protocol.Element, created bool) error {
	if label, ok := el.Attr(protocol.AttrLabel); ok && label != "" {
		v.Label = label
	}
	if group, ok := el.Attr(protocol.AttrGroup); ok {
		v.Group = group
	}
	if raw, ok := el.Attr(protocol.AttrState); ok {
		st, err := ParseState(raw)
		if err != nil {
			return err
		}
		v.State = st
	} else if created {
		return errors.New("missing state")
	}

	if v.Kind == KindLight {
		v.Perm = PermRO
	} else if raw, ok := el.Attr(protocol.AttrPerm); ok {
		p, err := ParsePermission(raw)
		if err != nil {
			return err
		}
		v.Perm = p
	} else if created {
		return errors.New("missing perm")
	}

	if v.Kind == KindSwitch {
		if raw, ok := el.Attr(protocol.AttrRule); ok {
			r, err := ParseRule(raw)
			if err != nil {
				return err
			}
			v.Rule = r
		} else if created {
			return errors.New("missing rule")
		}
	}
	return nil
}

// applyCommonAttrs merges timeout/timestamp/message and returns the event time.
func applyCommonAttrs(v *Vector, el protocol.Element, created bool, now time.Time) (time.Time, error) {
	if raw, ok := el.Attr(protocol.AttrTimeout); ok && strings.TrimSpace(raw) != "" {
		t, err := number.Parse(raw)
		if err != nil || t < 0 {
			return time.Time{}, fmt.Errorf("invalid timeout %q", raw)
		}
		v.Timeout = t
	}
	ts, present := parseTimestamp(el, now)
	if present || created {
		v.Timestamp = ts
	}
	if text, ok := el.Attr(protocol.AttrMessage); ok {
		v.Message = text
	}
	return ts, nil
}

func memberInfo(child protocol.Element, prev Member) (MemberInfo, error) {
	name := strings.TrimSpace(child.AttrOr(protocol.AttrName, ""))
	if name == "" {
		return MemberInfo{}, fmt.Errorf("%s missing name", child.Tag)
	}
	info := MemberInfo{Name: name, Label: name}
	if prev != nil {
		info = prev.Info()
	}
	if label, ok := child.Attr(protocol.AttrLabel); ok && label != "" {
		info.Label = label
	}
	return info, nil
}

func parseDefMember(kind Kind, child protocol.Element, members map[string]Member) (Member, error) {
	name := strings.TrimSpace(child.AttrOr(protocol.AttrName, ""))
	prev := members[name]
	info, err := memberInfo(child, prev)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindNumber:
		m, _ := prev.(NumberMember)
		m.MemberInfo = info
		for _, f := range []struct {
			attr string
			dst  *string
		}{
			{protocol.AttrFormat, &m.Format},
			{protocol.AttrMin, &m.Min},
			{protocol.AttrMax, &m.Max},
			{protocol.AttrStep, &m.Step},
		} {
			if raw, ok := child.Attr(f.attr); ok {
				*f.dst = strings.TrimSpace(raw)
			}
		}
		if m.Format == "" {
			m.Format = "%g"
		}
		for _, bound := range []struct {
			attr  string
			value string
		}{{"min", m.Min}, {"max", m.Max}, {"step", m.Step}} {
			if bound.value != "" && !number.Valid(bound.value) {
				return nil, fmt.Errorf("member %q: invalid %s %q", name, bound.attr, bound.value)
			}
		}
		value := strings.TrimSpace(child.Text)
		if !number.Valid(value) {
			return nil, fmt.Errorf("member %q: invalid number %q", name, value)
		}
		m.Value = value
		return m, nil
	case KindBLOB:
		m, _ := prev.(BLOBMember)
		m = m.clone().(BLOBMember)
		m.MemberInfo = info
		if f, ok := child.Attr(protocol.AttrFormat); ok {
			m.Format = f
		}
		return m, nil
	default:
		m, err := parseValue(kind, info, child)
		if err != nil {
			return nil, fmt.Errorf("member %q: %v", name, err)
		}
		return m, nil
	}
}

func parseOneMember(kind Kind, child protocol.Element, prev Member) (Member, error) {
	info := prev.Info()
	switch kind {
	case KindNumber:
		m := prev.(NumberMember)
		for _, f := range []struct {
			attr string
			dst  *string
		}{
			{protocol.AttrMin, &m.Min},
			{protocol.AttrMax, &m.Max},
			{protocol.AttrStep, &m.Step},
		} {
			if raw, ok := child.Attr(f.attr); ok {
				v := strings.TrimSpace(raw)
				if !number.Valid(v) {
					return nil, fmt.Errorf("invalid %s %q", f.attr, raw)
				}
				*f.dst = v
			}
		}
		value := strings.TrimSpace(child.Text)
		if !number.Valid(value) {
			return nil, fmt.Errorf("invalid number %q", value)
		}
		m.Value = value
		return m, nil
	case KindBLOB:
		m := BLOBMember{MemberInfo: info, Format: prev.(BLOBMember).Format}
		if f, ok := child.Attr(protocol.AttrFormat); ok {
			m.Format = f
		}
		data, err := decodeBase64(child.Text)
		if err != nil {
			return nil, err
		}
		m.Data = data
		m.Size = len(data)
		if raw, ok := child.Attr(protocol.AttrSize); ok && strings.TrimSpace(raw) != "" {
			size, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || size < 0 {
				return nil, fmt.Errorf("invalid size %q", raw)
			}
			m.Size = size
		}
		return m, nil
	default:
		return parseValue(kind, info, child)
	}
}

func parseValue(kind Kind, info MemberInfo, child protocol.Element) (Member, error) {
	switch kind {
	case KindSwitch:
		v, err := ParseSwitchState(child.Text)
		if err != nil {
			return nil, err
		}
		return SwitchMember{MemberInfo: info, Value: v}, nil
	case KindLight:
		v, err := ParseState(child.Text)
		if err != nil {
			return nil, err
		}
		return LightMember{MemberInfo: info, Value: v}, nil
	case KindText:
		return TextMember{MemberInfo: info, Value: child.Text}, nil
	default:
		return nil, fmt.Errorf("unexpected kind %s", kind)
	}
}

func decodeBase64(text string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		default:
			return r
		}
	}, text)
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %v", err)
	}
	return data, nil
}

// parseTimestamp reads the timestamp attribute as UTC. The bool reports
// whether a valid timestamp was present; otherwise now is returned.
func parseTimestamp(el protocol.Element, now time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(el.AttrOr(protocol.AttrTimestamp, ""))
	if raw == "" {
		return now, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return now, false
}
