package main

import (
	"sync"

	"github.com/danmuck/indictl/internal/indi"
	"github.com/rs/zerolog/log"
)

// blobEnabler is the slice of the client the monitor drives.
type blobEnabler interface {
	SendEnableBLOB(mode indi.BLOBMode, device, vector string) error
	SessionID() string
}

// monitor logs every event and optionally sends enableBLOB once per device
// per session.
type monitor struct {
	mode   indi.BLOBMode
	client blobEnabler

	mu      sync.Mutex
	session string
	enabled map[string]bool
}

func newMonitor(mode indi.BLOBMode) *monitor {
	return &monitor{
		mode:    mode,
		enabled: make(map[string]bool),
	}
}

func (m *monitor) handle(ev indi.Event) {
	info := ev.Info()
	switch e := ev.(type) {
	case indi.MessageEvent:
		log.Info().Str("device", info.Device).Bool("local", e.Local).Msgf("indictl.monitor message %s", e.Text)
	case indi.DefineEvent:
		log.Info().
			Str("device", info.Device).
			Str("vector", e.Vector.Name).
			Str("kind", e.Vector.Kind.String()).
			Str("state", string(e.Vector.State)).
			Bool("created", e.Created).
			Msg("indictl.monitor define")
		m.maybeEnableBLOB(info.Device)
	case indi.SetEvent:
		log.Debug().
			Str("device", info.Device).
			Str("vector", e.Vector.Name).
			Str("state", string(e.Vector.State)).
			Strs("members", e.Members).
			Msg("indictl.monitor set")
	case indi.DeleteEvent:
		log.Info().Str("device", info.Device).Strs("vectors", e.Vectors).Msg("indictl.monitor delete")
	case indi.VectorTimeoutEvent:
		log.Warn().
			Str("device", info.Device).
			Str("vector", e.Vector).
			Dur("elapsed", e.Elapsed).
			Dur("window", e.Window).
			Msg("indictl.monitor vector timeout")
	}
}

func (m *monitor) maybeEnableBLOB(device string) {
	if m.mode == "" || m.client == nil {
		return
	}
	m.mu.Lock()
	if sid := m.client.SessionID(); sid != m.session {
		m.session = sid
		m.enabled = make(map[string]bool)
	}
	if m.enabled[device] {
		m.mu.Unlock()
		return
	}
	m.enabled[device] = true
	m.mu.Unlock()

	if err := m.client.SendEnableBLOB(m.mode, device, ""); err != nil {
		log.Warn().Err(err).Str("device", device).Msg("indictl.monitor enableBLOB failed")
	}
}
