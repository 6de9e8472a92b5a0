package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	m, ok := ParseMonth("DEC")
	require.True(t, ok)
	assert.Equal(t, Dec, m)

	m, ok = ParseMonth("Jun")
	require.True(t, ok)
	assert.Equal(t, Jun, m)

	_, ok = ParseMonth(" jun")
	assert.False(t, ok)

	_, ok = ParseMonth("june")
	assert.False(t, ok)
	_, ok = ParseMonth("")
	assert.False(t, ok)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan", Jan.Label())
	assert.Equal(t, "Sep", Sep.Label())
	assert.Equal(t, "", Month("").Label())
}

func TestNewEditStateHasAllMonthsEmpty(t *testing.T) {
	s := NewEditState()
	require.Len(t, s.Prices, 12)
	for _, m := range Months {
		v, ok := s.Prices[m]
		require.True(t, ok, "missing %s", m)
		assert.Equal(t, "", v)
	}
	assert.False(t, s.RoomSelected())
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewEditState()
	s.Prices[Jan] = "100"
	c := s.Clone()
	c.Prices[Jan] = "200"
	assert.Equal(t, "100", s.Prices[Jan])
}

func TestPreviewOf(t *testing.T) {
	p := PreviewOf(NewEditState())
	assert.Equal(t, NotSelected, p.RoomName)
	assert.False(t, p.Selected)
	assert.Empty(t, p.Months)

	s := NewEditState()
	s.SelectedRoomID = "r1"
	s.SelectedRoomName = "Chic-1"
	s.Prices[Mar] = "750"
	p = PreviewOf(s)
	assert.Equal(t, "Chic-1", p.RoomName)
	require.Len(t, p.Months, 12)
	assert.Equal(t, PreviewMonth{Month: Jan, Label: "Jan", Value: NotSet}, p.Months[0])
	assert.Equal(t, PreviewMonth{Month: Mar, Label: "Mar", Value: "750", Set: true}, p.Months[2])
	assert.Equal(t, Dec, p.Months[11].Month)
}
