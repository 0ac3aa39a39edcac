package indi

import (
	"testing"
	"time"

	"github.com/danmuck/indictl/internal/protocol"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDecoder() (*Store, *Decoder) {
	s := NewStore()
	s.now = func() time.Time { return fixedNow }
	d := NewDecoder(s)
	d.now = func() time.Time { return fixedNow }
	return s, d
}

func mustElement(t *testing.T, raw string) protocol.Element {
	t.Helper()
	el, err := protocol.Parse([]byte(raw))
	require.NoError(t, err)
	return el
}

func mustDecode(t *testing.T, d *Decoder, raw string) Event {
	t.Helper()
	ev, err := d.Decode(mustElement(t, raw))
	require.NoError(t, err)
	return ev
}

const (
	defEqCoord = `<defNumberVector device="Scope" name="EqCoord" label="Eq. Coordinates" group="Main" state="Idle" perm="rw" timeout="60" timestamp="2026-03-01T11:00:00">
  <defNumber name="RA" label="RA" format="%010.6m" min="0" max="24" step="0">12:30:00</defNumber>
  <defNumber name="DEC" label="Dec" format="%010.6m" min="-90" max="90" step="0">45:00:00</defNumber>
</defNumberVector>`

	defSlew = `<defSwitchVector device="Scope" name="OnSet" label="On Set" group="Main" state="Idle" perm="rw" rule="OneOfMany">
  <defSwitch name="SLEW" label="Slew">On</defSwitch>
  <defSwitch name="TRACK" label="Track">Off</defSwitch>
</defSwitchVector>`

	defPort = `<defTextVector device="Scope" name="Port" state="Ok" perm="rw">
  <defText name="PATH">/dev/ttyUSB0</defText>
  <defText name="BAUD">9600</defText>
</defTextVector>`

	defStatus = `<defLightVector device="Scope" name="Status" state="Ok">
  <defLight name="Power">Ok</defLight>
  <defLight name="Motor">Idle</defLight>
</defLightVector>`

	defImage = `<defBLOBVector device="Camera" name="Image" state="Idle" perm="rw">
  <defBLOB name="CCD1" label="Frame"/>
</defBLOBVector>`
)
