package protocol

// Top-level and member tags.
const (
	TagMessage       = "message"
	TagDelProperty   = "delProperty"
	TagGetProperties = "getProperties"
	TagEnableBLOB    = "enableBLOB"

	TagDefSwitchVector = "defSwitchVector"
	TagDefTextVector   = "defTextVector"
	TagDefNumberVector = "defNumberVector"
	TagDefLightVector  = "defLightVector"
	TagDefBLOBVector   = "defBLOBVector"

	TagSetSwitchVector = "setSwitchVector"
	TagSetTextVector   = "setTextVector"
	TagSetNumberVector = "setNumberVector"
	TagSetLightVector  = "setLightVector"
	TagSetBLOBVector   = "setBLOBVector"

	TagNewSwitchVector = "newSwitchVector"
	TagNewTextVector   = "newTextVector"
	TagNewNumberVector = "newNumberVector"
	TagNewBLOBVector   = "newBLOBVector"

	TagDefSwitch = "defSwitch"
	TagDefText   = "defText"
	TagDefNumber = "defNumber"
	TagDefLight  = "defLight"
	TagDefBLOB   = "defBLOB"

	TagOneSwitch = "oneSwitch"
	TagOneText   = "oneText"
	TagOneNumber = "oneNumber"
	TagOneLight  = "oneLight"
	TagOneBLOB   = "oneBLOB"
)

// Attribute names used on the wire.
const (
	AttrDevice    = "device"
	AttrName      = "name"
	AttrLabel     = "label"
	AttrGroup     = "group"
	AttrState     = "state"
	AttrPerm      = "perm"
	AttrRule      = "rule"
	AttrTimeout   = "timeout"
	AttrTimestamp = "timestamp"
	AttrMessage   = "message"
	AttrFormat    = "format"
	AttrMin       = "min"
	AttrMax       = "max"
	AttrStep      = "step"
	AttrSize      = "size"
	AttrVersion   = "version"
)

var inboundTags = []string{
	TagMessage,
	TagDelProperty,
	TagDefSwitchVector,
	TagDefTextVector,
	TagDefNumberVector,
	TagDefLightVector,
	TagDefBLOBVector,
	TagSetSwitchVector,
	TagSetTextVector,
	TagSetNumberVector,
	TagSetLightVector,
	TagSetBLOBVector,
}

// InboundTags lists the top-level tags a client accepts from the wire.
func InboundTags() []string {
	out := make([]string, len(inboundTags))
	copy(out, inboundTags)
	return out
}

// IsInboundTag reports whether tag may start a top-level inbound element.
func IsInboundTag(tag string) bool {
	for _, t := range inboundTags {
		if t == tag {
			return true
		}
	}
	return false
}
