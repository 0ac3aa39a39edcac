package indi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberMemberConversions(t *testing.T) {
	m := NumberMember{Value: "-12:30:00", Format: "%010.6m", Min: "-90", Max: "90", Step: "0.5"}
	f, err := m.Float()
	require.NoError(t, err)
	assert.InDelta(t, -12.5, f, 1e-9)
	lo, err := m.MinFloat()
	require.NoError(t, err)
	assert.Equal(t, -90.0, lo)
	step, err := m.StepFloat()
	require.NoError(t, err)
	assert.Equal(t, 0.5, step)

	s, err := m.Formatted()
	require.NoError(t, err)
	assert.Contains(t, s, "12:30:00")
}

func TestVectorCloneCopiesBLOBData(t *testing.T) {
	v := Vector{
		Kind:    KindBLOB,
		Members: map[string]Member{"A": BLOBMember{MemberInfo: MemberInfo{Name: "A"}, Data: []byte{1, 2}}},
	}
	c := v.Clone()
	orig, _ := v.BLOB("A")
	orig.Data[0] = 7
	v.Members["A"] = orig

	copied, ok := c.BLOB("A")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2}, copied.Data)
	_, ok = c.Switch("A")
	assert.False(t, ok, "typed accessor must reject the wrong member kind")
}

func TestWritable(t *testing.T) {
	assert.False(t, Vector{Kind: KindLight, Perm: PermRW}.Writable())
	assert.False(t, Vector{Kind: KindText, Perm: PermRO}.Writable())
	assert.True(t, Vector{Kind: KindText, Perm: PermWO}.Writable())
}
