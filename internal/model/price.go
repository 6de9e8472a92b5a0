package model

import (
	"encoding/json"
	"strings"
)

// Month identifies one calendar month slot of a price record.  The value is
// always one of the twelve three-letter lowercase tokens listed in Months.
type Month string

const (
	Jan Month = "jan"
	Feb Month = "feb"
	Mar Month = "mar"
	Apr Month = "apr"
	May Month = "may"
	Jun Month = "jun"
	Jul Month = "jul"
	Aug Month = "aug"
	Sep Month = "sep"
	Oct Month = "oct"
	Nov Month = "nov"
	Dec Month = "dec"
)

// Months lists every month key in calendar order.
var Months = [12]Month{Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec}

// ParseMonth matches s against the month keys ignoring case.
func ParseMonth(s string) (Month, bool) {
	m := Month(strings.ToLower(s))
	for _, k := range Months {
		if k == m {
			return k, true
		}
	}
	return "", false
}

// Label returns the capitalised month key, e.g. "Jan".
func (m Month) Label() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

// FetchedPrices is the price record returned by the lookup endpoint.  Keys
// come straight off the wire (any case, possibly unknown) and a nil value
// means the month is unset.
type FetchedPrices map[string]*json.Number

// PriceLookup is the body of GET api/priceView/{roomId}.
type PriceLookup struct {
	Prices  FetchedPrices `json:"prices,omitempty"`
	Message string        `json:"message,omitempty"`
}

// PriceRecord is the outgoing record: every month mapped to a non-negative
// integer.  Values are kept as exact decimal literals so long digit strings
// are sent without truncation.
type PriceRecord map[Month]json.Number

// PriceUpdate is the body of PUT api/priceUpadte.  RoomID is sent alongside
// the legacy RoomName so the backend can address the room unambiguously.
type PriceUpdate struct {
	RoomID   string      `json:"roomId"`
	RoomName string      `json:"roomName"`
	Prices   PriceRecord `json:"prices"`
}

// EditState is the working copy held by a price form.  Prices always holds
// exactly the twelve month keys, each mapped to a digit-only buffer.
type EditState struct {
	SelectedRoomID   string           `json:"selectedRoomId"`
	SelectedRoomName string           `json:"selectedRoomName"`
	Prices           map[Month]string `json:"prices"`
	IsLoading        bool             `json:"isLoading"`
	ErrorMessage     string           `json:"errorMessage,omitempty"`
}

// EmptyBuffers returns a fresh twelve-key buffer map with every value empty.
func EmptyBuffers() map[Month]string {
	out := make(map[Month]string, len(Months))
	for _, m := range Months {
		out[m] = ""
	}
	return out
}

// NewEditState returns the idle state: no room, empty buffers.
func NewEditState() EditState {
	return EditState{Prices: EmptyBuffers()}
}

// RoomSelected reports whether a room has been chosen.
func (s EditState) RoomSelected() bool { return s.SelectedRoomID != "" }

// Clone returns a deep copy so callers can read it without holding locks.
func (s EditState) Clone() EditState {
	out := s
	out.Prices = make(map[Month]string, len(s.Prices))
	for k, v := range s.Prices {
		out.Prices[k] = v
	}
	return out
}

// Preview placeholders.
const (
	NotSelected = "Not selected"
	NotSet      = "Not set"
)

// Preview is the read-only reflection of an EditState shown next to the form.
type Preview struct {
	RoomName string         `json:"roomName"`
	Selected bool           `json:"selected"`
	Months   []PreviewMonth `json:"months,omitempty"`
}

// PreviewMonth is one line of the preview list.
type PreviewMonth struct {
	Month Month  `json:"month"`
	Label string `json:"label"`
	Value string `json:"value"`
	Set   bool   `json:"set"`
}

// PreviewOf derives the preview from s.  Months are listed only when a room
// is selected.
func PreviewOf(s EditState) Preview {
	p := Preview{RoomName: s.SelectedRoomName, Selected: s.RoomSelected()}
	if p.RoomName == "" {
		p.RoomName = NotSelected
	}
	if !p.Selected {
		return p
	}
	p.Months = make([]PreviewMonth, 0, len(Months))
	for _, m := range Months {
		v := s.Prices[m]
		line := PreviewMonth{Month: m, Label: m.Label(), Value: v, Set: v != ""}
		if v == "" {
			line.Value = NotSet
		}
		p.Months = append(p.Months, line)
	}
	return p
}
