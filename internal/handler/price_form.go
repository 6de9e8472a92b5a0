package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/aizah-price-admin/internal/export"
	"github.com/iliyamo/aizah-price-admin/internal/middleware"
	"github.com/iliyamo/aizah-price-admin/internal/model"
	"github.com/iliyamo/aizah-price-admin/internal/priceform"
	q "github.com/iliyamo/aizah-price-admin/internal/queue"
)

// PriceFormHandler serves the monthly price editor, both as the HTML page
// and as a JSON API.  The form itself is attached to the request by the
// session middleware.
type PriceFormHandler struct {
	Rooms  RoomLister
	Events EventPublisher
	Logger *zap.Logger
}

// NewPriceFormHandler panics when the room catalog is missing.  A nil
// publisher disables price updated events.
func NewPriceFormHandler(rooms RoomLister, events EventPublisher, logger *zap.Logger) *PriceFormHandler {
	if rooms == nil {
		panic("nil room catalog passed to NewPriceFormHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceFormHandler{Rooms: rooms, Events: events, Logger: logger}
}

// field is one month input of the page.
type field struct {
	Month model.Month
	Label string
	Value string
}

// pageData feeds prices.html.
type pageData struct {
	Title    string
	Rooms    []model.Room
	State    model.EditState
	Notice   string
	Fields   []field
	Disabled bool
	Preview  model.Preview
}

func (h *PriceFormHandler) page(state model.EditState, notice string) pageData {
	fields := make([]field, 0, len(model.Months))
	for _, m := range model.Months {
		fields = append(fields, field{Month: m, Label: m.Label(), Value: state.Prices[m]})
	}
	return pageData{
		Title:    "Room Prices",
		Rooms:    h.Rooms.Rooms(),
		State:    state,
		Notice:   notice,
		Fields:   fields,
		Disabled: !state.RoomSelected() || state.IsLoading,
		Preview:  model.PreviewOf(state),
	}
}

func formOf(c echo.Context) (*priceform.Form, error) {
	f := middleware.FormFrom(c)
	if f == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "no price form attached to request")
	}
	return f, nil
}

// Page handles GET /prices.
func (h *PriceFormHandler) Page(c echo.Context) error {
	f, err := formOf(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "prices.html", h.page(f.State(), ""))
}

// Select handles POST /prices/select.  The room is loaded before the
// redirect so the following GET shows its prices or the load error.
func (h *PriceFormHandler) Select(c echo.Context) error {
	f, err := formOf(c)
	if err != nil {
		return err
	}
	id := c.FormValue("room_id")
	if !h.knownRoom(id) {
		return c.Render(http.StatusNotFound, "prices.html", h.page(f.State(), MsgUnknownRoom))
	}
	f.SelectRoom(c.Request().Context(), id)
	return c.Redirect(http.StatusSeeOther, "/prices")
}

// knownRoom reports whether id may be selected.  The empty placeholder is
// always accepted and leaves the form as it is.
func (h *PriceFormHandler) knownRoom(id string) bool {
	if id == "" {
		return true
	}
	_, ok := h.Rooms.Lookup(id)
	return ok
}

// Submit handles POST /prices: the posted month fields are applied to the
// buffers and the record is sent to the price service.  Fields missing from
// the post (disabled inputs) keep their buffer.  The post is applied all or
// nothing: one rejected month leaves every buffer untouched.
func (h *PriceFormHandler) Submit(c echo.Context) error {
	f, err := formOf(c)
	if err != nil {
		return err
	}
	if _, err := c.FormParams(); err != nil {
		return c.Render(http.StatusBadRequest, "prices.html", h.page(f.State(), "invalid form"))
	}

	posted := postedMonths(c.Request().PostForm)
	if rejected := validateMonths(posted); len(rejected) > 0 {
		return c.Render(http.StatusUnprocessableEntity, "prices.html",
			h.page(f.State(), strings.Join(rejected, " ")))
	}
	applyMonths(f, posted)

	res := h.submit(c, f)
	status := http.StatusOK
	notice := ""
	switch {
	case res.OK():
		notice = res.Message
	case errors.Is(res.Err, priceform.ErrNoRoomSelected):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusBadGateway
	}
	return c.Render(status, "prices.html", h.page(res.State, notice))
}

// postedMonths picks the month fields present in form.
func postedMonths(form url.Values) map[model.Month]string {
	out := make(map[model.Month]string, len(model.Months))
	for _, m := range model.Months {
		if vals, ok := form[string(m)]; ok && len(vals) > 0 {
			out[m] = vals[0]
		}
	}
	return out
}

// validateMonths returns one message per value that is not digits only, in
// calendar order.
func validateMonths(posted map[model.Month]string) []string {
	var rejected []string
	for _, m := range model.Months {
		raw, ok := posted[m]
		if !ok {
			continue
		}
		if err := priceform.ValidateValue(raw); err != nil {
			rejected = append(rejected, fmt.Sprintf("%s: %v.", m.Label(), err))
		}
	}
	return rejected
}

// applyMonths writes validated values into the buffers.  A disabled editor
// stops the loop: Submit reports the reason.
func applyMonths(f *priceform.Form, posted map[model.Month]string) {
	for _, m := range model.Months {
		raw, ok := posted[m]
		if !ok {
			continue
		}
		if err := f.SetMonthValue(m, raw); errors.Is(err, priceform.ErrEditorDisabled) {
			return
		}
	}
}

// submit runs Submit on f and publishes the event for an accepted update.
func (h *PriceFormHandler) submit(c echo.Context, f *priceform.Form) priceform.SubmitResult {
	ctx := c.Request().Context()
	res := f.Submit(ctx)
	if res.OK() {
		h.publish(ctx, middleware.SessionIDFrom(c), res.Update)
	}
	return res
}

// publish is best effort: the price service already accepted the record.
func (h *PriceFormHandler) publish(ctx context.Context, sessionID string, update model.PriceUpdate) {
	if h.Events == nil {
		return
	}
	ev := q.PriceUpdatedEvent{
		RoomID:    update.RoomID,
		RoomName:  update.RoomName,
		Prices:    update.Prices,
		SessionID: sessionID,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	err := h.Events.PublishPriceUpdated(ctx, ev)
	if err != nil {
		h.Logger.Warn("publish price updated event failed",
			zap.String("room_id", update.RoomID),
			zap.Error(err),
		)
	}
}

// Export handles GET /prices/export.xlsx.
func (h *PriceFormHandler) Export(c echo.Context) error {
	f, err := formOf(c)
	if err != nil {
		return err
	}
	p := f.Preview()
	name := "prices.xlsx"
	if st := f.State(); st.RoomSelected() {
		name = "prices-" + st.SelectedRoomID + ".xlsx"
	}
	var buf bytes.Buffer
	if err := export.WritePreview(&buf, p); err != nil {
		h.Logger.Error("write preview workbook", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody("export failed"))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// stateBody is the JSON shape of the API responses.
type stateBody struct {
	Message string          `json:"message,omitempty"`
	State   model.EditState `json:"state"`
	Preview model.Preview   `json:"preview"`
}

func bodyOf(state model.EditState, msg string) stateBody {
	return stateBody{Message: msg, State: state, Preview: model.PreviewOf(state)}
}

// GetState handles GET /v1/price-form.
func (h *PriceFormHandler) GetState(c echo.Context) error {
	f, err := formOf(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bodyOf(f.State(), ""))
}

// SelectRoom handles POST /v1/price-form/select with {"roomId": "..."}.
// A load failure is reported through state.errorMessage with 200, like the
// page does.
func (h *PriceFormHandler) SelectRoom(c echo.Context) error {
	f, err := formOf(c)
	if err != nil {
		return err
	}
	var body struct {
		RoomID string `json:"roomId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	id := strings.TrimSpace(body.RoomID)
	if !h.knownRoom(id) {
		return c.JSON(http.StatusNotFound, errorBody(MsgUnknownRoom))
	}
	state := f.SelectRoom(c.Request().Context(), id)
	return c.JSON(http.StatusOK, bodyOf(state, ""))
}

// SetMonth handles PUT /v1/price-form/months/:month with {"value": "..."}.
func (h *PriceFormHandler) SetMonth(c echo.Context) error {
	f, err := formOf(c)
	if err != nil {
		return err
	}
	month, ok := model.ParseMonth(c.Param("month"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody(priceform.ErrUnknownMonth.Error()))
	}
	var body struct {
		Value *string `json:"value"`
	}
	if err := c.Bind(&body); err != nil || body.Value == nil {
		return c.JSON(http.StatusBadRequest, errorBody("value is required"))
	}
	if err := f.SetMonthValue(month, *body.Value); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error": err.Error(),
			"state": f.State(),
		})
	}
	return c.JSON(http.StatusOK, bodyOf(f.State(), ""))
}

// SubmitJSON handles POST /v1/price-form/submit.
func (h *PriceFormHandler) SubmitJSON(c echo.Context) error {
	f, err := formOf(c)
	if err != nil {
		return err
	}
	res := h.submit(c, f)
	switch {
	case res.OK():
		return c.JSON(http.StatusOK, bodyOf(res.State, res.Message))
	case errors.Is(res.Err, priceform.ErrNoRoomSelected):
		return c.JSON(http.StatusUnprocessableEntity, bodyOf(res.State, res.Message))
	default:
		return c.JSON(http.StatusBadGateway, bodyOf(res.State, res.Message))
	}
}
