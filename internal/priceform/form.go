// Package priceform implements the monthly room price editor: selecting a
// room loads its twelve monthly prices into digit-only buffers, the buffers
// are edited one month at a time, and submitting sends them back to the
// price service.
//
// A Form is safe for concurrent use.  Network calls run without the lock
// held; every fetch and submit takes a generation token and a response only
// mutates the form if no newer request was started in the meantime.
package priceform

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/aizah-price-admin/internal/metrics"
	"github.com/iliyamo/aizah-price-admin/internal/model"
	"github.com/iliyamo/aizah-price-admin/internal/priceapi"
)

// Operator-facing messages.
const (
	MsgSelectRoom   = "Please select a room before updating prices."
	MsgLoadFailed   = "Failed to load prices."
	MsgUpdateFailed = "Failed to update prices. Please try again."
	MsgUpdated      = "Prices updated successfully!"
)

var (
	// ErrNoRoomSelected is reported by Submit when no room is selected.
	ErrNoRoomSelected = errors.New(MsgSelectRoom)
	// ErrEditorDisabled is returned by SetMonthValue while no room is
	// selected or a request is in flight.
	ErrEditorDisabled = errors.New("price editor is disabled")
	// ErrUnknownMonth is returned for a key outside the twelve month keys.
	ErrUnknownMonth = errors.New("unknown month")
	// ErrNotDigits is returned when the new value is not digits only.
	ErrNotDigits = errors.New("price must contain digits only")
)

var digitsOnly = regexp.MustCompile(`^\d*$`)

// PriceClient is the price service as seen by the form.
type PriceClient interface {
	FetchPrices(ctx context.Context, roomID string) (model.FetchedPrices, error)
	UpdatePrices(ctx context.Context, update model.PriceUpdate) error
}

// RoomNamer resolves a room id to its display name, "" when unknown.
type RoomNamer interface {
	NameOf(id string) string
}

// SubmitResult describes how a Submit call ended.  Err is nil on success,
// ErrNoRoomSelected when the call was refused, or the upstream error.
type SubmitResult struct {
	Message string
	Err     error
	Update  model.PriceUpdate
	State   model.EditState
}

// OK reports whether the update was accepted by the price service.
func (r SubmitResult) OK() bool { return r.Err == nil }

// Form holds one operator's edit state.
type Form struct {
	client PriceClient
	rooms  RoomNamer
	logger *zap.Logger

	mu         sync.Mutex
	state      model.EditState
	generation uint64
}

// New returns an idle form.
func New(client PriceClient, rooms RoomNamer, logger *zap.Logger) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Form{
		client: client,
		rooms:  rooms,
		logger: logger,
		state:  model.NewEditState(),
	}
}

// State returns a copy of the current edit state.
func (f *Form) State() model.EditState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

// Preview derives the live preview from the current state.
func (f *Form) Preview() model.Preview {
	return model.PreviewOf(f.State())
}

// begin marks the form as loading and hands out the generation token for
// the request about to start.  Caller holds f.mu.
func (f *Form) begin() uint64 {
	f.state.ErrorMessage = ""
	f.state.IsLoading = true
	f.generation++
	return f.generation
}

// settle applies the outcome of request gen and clears the loading flag.
// A superseded request leaves the state untouched and reports stale.
func (f *Form) settle(gen uint64, op string, apply func()) (model.EditState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		f.logger.Debug("discarding stale response",
			zap.String("op", op),
			zap.Uint64("generation", gen),
			zap.Uint64("current", f.generation),
		)
		metrics.IncStale(op)
		return f.state.Clone(), true
	}
	f.state.IsLoading = false
	if apply != nil {
		apply()
	}
	return f.state.Clone(), false
}

// SelectRoom selects the room id and loads its prices.  An empty id is the
// placeholder option and changes nothing.
func (f *Form) SelectRoom(ctx context.Context, id string) model.EditState {
	if id == "" {
		return f.State()
	}

	f.mu.Lock()
	f.state.SelectedRoomID = id
	f.state.SelectedRoomName = f.rooms.NameOf(id)
	gen := f.begin()
	f.mu.Unlock()

	settled := false
	defer func() {
		if !settled {
			f.settle(gen, metrics.OpFetch, nil)
		}
	}()

	prices, err := f.client.FetchPrices(ctx, id)
	settled = true

	state, stale := f.settle(gen, metrics.OpFetch, func() {
		switch {
		case err != nil:
			f.state.ErrorMessage = errorMessage(err, MsgLoadFailed)
		case prices == nil:
			f.logger.Info("no price data found", zap.String("room_id", id))
		default:
			f.state.Prices = f.hydrate(id, prices)
		}
	})
	if !stale {
		metrics.ObserveFormOutcome(metrics.OpFetch, err != nil)
	}
	return state
}

// hydrate builds a full buffer set from a fetched record.  Keys match the
// month keys ignoring case; unknown keys and null values are skipped.
func (f *Form) hydrate(roomID string, fetched model.FetchedPrices) map[model.Month]string {
	out := model.EmptyBuffers()
	for key, value := range fetched {
		month, ok := model.ParseMonth(key)
		if !ok || value == nil {
			continue
		}
		buf, ok := priceBuffer(*value)
		if !ok {
			f.logger.Warn("ignoring price that is not a non-negative integer",
				zap.String("room_id", roomID),
				zap.String("month", key),
				zap.String("value", value.String()),
			)
			continue
		}
		out[month] = buf
	}
	return out
}

// priceBuffer renders a fetched number as a digit buffer.  Integral floats
// such as 500.0 are accepted; fractions and negatives are not.
func priceBuffer(n json.Number) (string, bool) {
	s := n.String()
	if s != "" && digitsOnly.MatchString(s) {
		return s, true
	}
	v, err := n.Float64()
	if err != nil || v < 0 || math.IsInf(v, 0) || v != math.Trunc(v) {
		return "", false
	}
	if v == 0 {
		// -0 passes the sign check but would format with its sign
		return "0", true
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true
}

// SetMonthValue replaces the buffer of month with raw.  Values that are not
// digits only are rejected and the buffer keeps its previous value.
func (f *Form) SetMonthValue(month model.Month, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.state.RoomSelected() || f.state.IsLoading {
		return ErrEditorDisabled
	}
	if _, ok := f.state.Prices[month]; !ok {
		return ErrUnknownMonth
	}
	if err := ValidateValue(raw); err != nil {
		return err
	}
	f.state.Prices[month] = raw
	return nil
}

// ValidateValue reports ErrNotDigits unless raw is empty or digits only.
func ValidateValue(raw string) error {
	if raw != "" && !digitsOnly.MatchString(raw) {
		return ErrNotDigits
	}
	return nil
}

// Submit sends the edited prices of the selected room to the price service.
// The edit state is kept as is on success.
func (f *Form) Submit(ctx context.Context) SubmitResult {
	f.mu.Lock()
	if !f.state.RoomSelected() {
		f.state.ErrorMessage = MsgSelectRoom
		state := f.state.Clone()
		f.mu.Unlock()
		return SubmitResult{Err: ErrNoRoomSelected, State: state}
	}
	update := model.PriceUpdate{
		RoomID:   f.state.SelectedRoomID,
		RoomName: f.state.SelectedRoomName,
		Prices:   toRecord(f.state.Prices),
	}
	gen := f.begin()
	f.mu.Unlock()

	settled := false
	defer func() {
		if !settled {
			f.settle(gen, metrics.OpUpdate, nil)
		}
	}()

	err := f.client.UpdatePrices(ctx, update)
	settled = true

	state, stale := f.settle(gen, metrics.OpUpdate, func() {
		if err != nil {
			f.state.ErrorMessage = errorMessage(err, MsgUpdateFailed)
		}
	})
	if !stale {
		metrics.ObserveFormOutcome(metrics.OpUpdate, err != nil)
	}

	res := SubmitResult{Err: err, Update: update, State: state}
	if err == nil {
		res.Message = MsgUpdated
	} else {
		res.Message = errorMessage(err, MsgUpdateFailed)
	}
	return res
}

// toRecord converts the buffers to the outgoing record.  An empty buffer
// becomes 0 and leading zeros are dropped so every value is a valid JSON
// number.
func toRecord(buffers map[model.Month]string) model.PriceRecord {
	out := make(model.PriceRecord, len(model.Months))
	for _, m := range model.Months {
		v := strings.TrimLeft(buffers[m], "0")
		if v == "" {
			v = "0"
		}
		out[m] = json.Number(v)
	}
	return out
}

// errorMessage picks the operator-facing text for a failed request: the
// backend's message, then the transport error text, then fallback.
func errorMessage(err error, fallback string) string {
	var apiErr *priceapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
