package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/aizah-price-admin/internal/catalog"
	"github.com/iliyamo/aizah-price-admin/internal/middleware"
	"github.com/iliyamo/aizah-price-admin/internal/model"
	"github.com/iliyamo/aizah-price-admin/internal/priceapi"
	"github.com/iliyamo/aizah-price-admin/internal/priceform"
	q "github.com/iliyamo/aizah-price-admin/internal/queue"
	"github.com/iliyamo/aizah-price-admin/internal/repository"
	"github.com/iliyamo/aizah-price-admin/internal/web"
)

type fakeClient struct {
	mu        sync.Mutex
	prices    model.FetchedPrices
	fetchErr  error
	updateErr error
	updates   []model.PriceUpdate
}

func (f *fakeClient) FetchPrices(context.Context, string) (model.FetchedPrices, error) {
	return f.prices, f.fetchErr
}

func (f *fakeClient) UpdatePrices(_ context.Context, u model.PriceUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	return f.updateErr
}

type fakePublisher struct {
	events []q.PriceUpdatedEvent
	err    error
}

func (p *fakePublisher) PublishPriceUpdated(_ context.Context, ev q.PriceUpdatedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func num(s string) *json.Number {
	n := json.Number(s)
	return &n
}

type fixture struct {
	e      *echo.Echo
	client *fakeClient
	events *fakePublisher
	form   *priceform.Form
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r, err := web.NewRenderer()
	require.NoError(t, err)

	cat, err := catalog.New([]model.Room{
		{ID: "1", Name: "Single Room"},
		{ID: "2", Name: "Twin Room"},
		{ID: "3", Name: "Suite"},
		{ID: "4", Name: "Studio"},
		{ID: "5", Name: "Family Room"},
	})
	require.NoError(t, err)
	fx := &fixture{client: &fakeClient{}, events: &fakePublisher{}}
	fx.form = priceform.New(fx.client, cat, nil)

	e := echo.New()
	e.Renderer = r
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextKeySession, "sid-1")
			c.Set(middleware.ContextKeyForm, fx.form)
			return next(c)
		}
	})
	h := NewPriceFormHandler(cat, fx.events, nil)
	e.GET("/prices", h.Page)
	e.POST("/prices", h.Submit)
	e.POST("/prices/select", h.Select)
	e.GET("/prices/export.xlsx", h.Export)
	e.GET("/v1/rooms", h.ListRooms)
	e.GET("/v1/price-form", h.GetState)
	e.POST("/v1/price-form/select", h.SelectRoom)
	e.PUT("/v1/price-form/months/:month", h.SetMonth)
	e.POST("/v1/price-form/submit", h.SubmitJSON)
	fx.e = e
	return fx
}

func (fx *fixture) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	fx.e.ServeHTTP(rec, req)
	return rec
}

func (fx *fixture) postForm(path string, v url.Values) *httptest.ResponseRecorder {
	return fx.do(http.MethodPost, path, echo.MIMEApplicationForm, v.Encode())
}

func (fx *fixture) jsonReq(method, path, body string) *httptest.ResponseRecorder {
	return fx.do(method, path, echo.MIMEApplicationJSON, body)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateBody {
	t.Helper()
	var b stateBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPageInitialState(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(http.MethodGet, "/prices", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "-- Select a room --")
	assert.Contains(t, body, "Twin Room")
	assert.Contains(t, body, model.NotSelected)
	assert.Contains(t, body, "Update Prices")
	assert.Contains(t, body, "aizah hospitality")
}

func TestSelectRedirectsAndLoads(t *testing.T) {
	fx := newFixture(t)
	fx.client.prices = model.FetchedPrices{"JAN": num("120"), "mar": num("300")}

	rec := fx.postForm("/prices/select", url.Values{"room_id": {"2"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/prices", rec.Header().Get(echo.HeaderLocation))

	st := fx.form.State()
	assert.Equal(t, "2", st.SelectedRoomID)
	assert.Equal(t, "Twin Room", st.SelectedRoomName)
	assert.Equal(t, "120", st.Prices[model.Jan])
	assert.Equal(t, "300", st.Prices[model.Mar])

	page := fx.do(http.MethodGet, "/prices", "", "").Body.String()
	assert.Contains(t, page, `value="120"`)
	assert.Contains(t, page, "<strong>120</strong>")
}

func TestSubmitFormSuccessPublishes(t *testing.T) {
	fx := newFixture(t)
	fx.form.SelectRoom(context.Background(), "1")

	rec := fx.postForm("/prices", url.Values{"jan": {"0150"}, "jun": {""}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), priceform.MsgUpdated)

	require.Len(t, fx.client.updates, 1)
	u := fx.client.updates[0]
	assert.Equal(t, "1", u.RoomID)
	assert.Equal(t, "Single Room", u.RoomName)
	assert.Equal(t, json.Number("150"), u.Prices[model.Jan])
	assert.Equal(t, json.Number("0"), u.Prices[model.Jun])

	require.Len(t, fx.events.events, 1)
	assert.Equal(t, "1", fx.events.events[0].RoomID)
	assert.Equal(t, "sid-1", fx.events.events[0].SessionID)
	_, err := time.Parse(time.RFC3339, fx.events.events[0].UpdatedAt)
	assert.NoError(t, err)
}

func TestSubmitFormRejectsNonDigits(t *testing.T) {
	fx := newFixture(t)
	fx.form.SelectRoom(context.Background(), "1")
	require.NoError(t, fx.form.SetMonthValue(model.May, "77"))

	rec := fx.postForm("/prices", url.Values{"may": {"12a"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "May: price must contain digits only.")
	assert.Equal(t, "77", fx.form.State().Prices[model.May])
	assert.Empty(t, fx.client.updates)
}

func TestSubmitFormRejectionAppliesNothing(t *testing.T) {
	fx := newFixture(t)
	fx.form.SelectRoom(context.Background(), "1")
	require.NoError(t, fx.form.SetMonthValue(model.Jan, "10"))
	require.NoError(t, fx.form.SetMonthValue(model.Dec, "20"))

	rec := fx.postForm("/prices", url.Values{"jan": {"11"}, "may": {"x"}, "dec": {"21"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	st := fx.form.State()
	assert.Equal(t, "10", st.Prices[model.Jan])
	assert.Equal(t, "20", st.Prices[model.Dec])
	assert.Contains(t, rec.Body.String(), `value="10"`)
	assert.NotContains(t, rec.Body.String(), `value="11"`)
	assert.Empty(t, fx.client.updates)
}

func TestSelectUnknownRoom(t *testing.T) {
	fx := newFixture(t)
	fx.form.SelectRoom(context.Background(), "2")

	rec := fx.postForm("/prices/select", url.Values{"room_id": {"999"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgUnknownRoom)

	rec = fx.jsonReq(http.MethodPost, "/v1/price-form/select", `{"roomId":"999"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"unknown room"}`, rec.Body.String())
	assert.Equal(t, "2", fx.form.State().SelectedRoomID)

	rec = fx.postForm("/prices/select", url.Values{"room_id": {""}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "2", fx.form.State().SelectedRoomID)
}

func TestSubmitFormWithoutRoom(t *testing.T) {
	fx := newFixture(t)
	rec := fx.postForm("/prices", url.Values{"jan": {"1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), priceform.MsgSelectRoom)
	assert.Empty(t, fx.client.updates)
	assert.Empty(t, fx.events.events)
}

func TestSubmitFormUpstreamFailure(t *testing.T) {
	fx := newFixture(t)
	fx.client.updateErr = &priceapi.APIError{StatusCode: 500, Message: "Room locked"}
	fx.form.SelectRoom(context.Background(), "3")

	rec := fx.postForm("/prices", url.Values{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Room locked")
	assert.Empty(t, fx.events.events)
}

func TestExportXLSX(t *testing.T) {
	fx := newFixture(t)
	fx.form.SelectRoom(context.Background(), "4")

	rec := fx.do(http.MethodGet, "/prices/export.xlsx", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxMIME, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "prices-4.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestListRooms(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(http.MethodGet, "/v1/rooms", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Rooms []model.Room `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rooms, 5)
	assert.Equal(t, model.Room{ID: "1", Name: "Single Room"}, body.Rooms[0])
}

func TestAPIFlow(t *testing.T) {
	fx := newFixture(t)
	fx.client.prices = model.FetchedPrices{"apr": num("90")}

	b := decodeState(t, fx.do(http.MethodGet, "/v1/price-form", "", ""))
	assert.False(t, b.Preview.Selected)
	assert.Len(t, b.State.Prices, 12)

	rec := fx.jsonReq(http.MethodPost, "/v1/price-form/select", `{"roomId":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b = decodeState(t, rec)
	assert.Equal(t, "Family Room", b.State.SelectedRoomName)
	assert.Equal(t, "90", b.State.Prices[model.Apr])

	rec = fx.jsonReq(http.MethodPut, "/v1/price-form/months/Apr", `{"value":"95"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "95", decodeState(t, rec).State.Prices[model.Apr])

	rec = fx.jsonReq(http.MethodPut, "/v1/price-form/months/apr", `{"value":"-1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), priceform.ErrNotDigits.Error())

	rec = fx.jsonReq(http.MethodPut, "/v1/price-form/months/smarch", `{"value":"1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = fx.jsonReq(http.MethodPut, "/v1/price-form/months/may", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.jsonReq(http.MethodPost, "/v1/price-form/submit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	b = decodeState(t, rec)
	assert.Equal(t, priceform.MsgUpdated, b.Message)
	assert.Equal(t, "95", b.State.Prices[model.Apr])
	require.Len(t, fx.client.updates, 1)
	assert.Equal(t, json.Number("95"), fx.client.updates[0].Prices[model.Apr])
}

func TestAPISelectLoadFailure(t *testing.T) {
	fx := newFixture(t)
	fx.client.fetchErr = errors.New("connection refused")
	rec := fx.jsonReq(http.MethodPost, "/v1/price-form/select", `{"roomId":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decodeState(t, rec)
	assert.Equal(t, "connection refused", b.State.ErrorMessage)
	assert.False(t, b.State.IsLoading)
}

func TestAPISubmitStatuses(t *testing.T) {
	fx := newFixture(t)
	rec := fx.jsonReq(http.MethodPost, "/v1/price-form/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, priceform.MsgSelectRoom, decodeState(t, rec).State.ErrorMessage)

	fx.form.SelectRoom(context.Background(), "1")
	fx.client.updateErr = &priceapi.APIError{StatusCode: 503}
	rec = fx.jsonReq(http.MethodPost, "/v1/price-form/submit", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Request failed with status code 503", decodeState(t, rec).State.ErrorMessage)
}

func TestPublishFailureDoesNotFailSubmit(t *testing.T) {
	fx := newFixture(t)
	fx.events.err = errors.New("broker down")
	fx.form.SelectRoom(context.Background(), "1")
	rec := fx.jsonReq(http.MethodPost, "/v1/price-form/submit", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, fx.events.events, 1)
}

func TestMissingFormIsServerError(t *testing.T) {
	e := echo.New()
	h := NewPriceFormHandler(catalog.Default(), nil, nil)
	e.GET("/v1/price-form", h.GetState)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/price-form", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakeUsers struct {
	users []model.User
	err   error
	limit int
}

func (f *fakeUsers) List(_ context.Context, limit int) ([]model.User, error) {
	f.limit = limit
	return f.users, f.err
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func newUsersEcho(t *testing.T, users UserLister) *echo.Echo {
	t.Helper()
	r, err := web.NewRenderer()
	require.NoError(t, err)
	e := echo.New()
	e.Renderer = r
	h := NewUserHandler(users, nil)
	e.GET("/users", h.Page)
	e.GET("/v1/users", h.List)
	e.GET("/v1/users/:id", h.Get)
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestUsersPage(t *testing.T) {
	users := &fakeUsers{users: []model.User{{
		ID: 1, Name: "Amina Zahir", Email: "amina@example.com", Role: "ADMIN",
		Status: "active", CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}}}
	e := newUsersEcho(t, users)

	rec := get(e, "/users?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "amina@example.com")
	assert.Contains(t, rec.Body.String(), "2024-05-01")
	assert.Equal(t, 5, users.limit)

	rec = get(e, "/v1/users?limit=bogus")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"amina@example.com"`)
	assert.Equal(t, 100, users.limit)
}

func TestUsersDisabledAndFailing(t *testing.T) {
	e := newUsersEcho(t, nil)
	rec := get(e, "/users")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no user database is configured")
	assert.Equal(t, http.StatusServiceUnavailable, get(e, "/v1/users").Code)

	e = newUsersEcho(t, &fakeUsers{err: errors.New("boom")})
	rec = get(e, "/users")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgUsersFailed)
	assert.Equal(t, http.StatusInternalServerError, get(e, "/v1/users").Code)
}

func TestUsersEmptyList(t *testing.T) {
	e := newUsersEcho(t, &fakeUsers{})
	rec := get(e, "/v1/users")
	assert.JSONEq(t, `{"users":[]}`, rec.Body.String())
	assert.Contains(t, get(e, "/users").Body.String(), "No users found.")
}

func TestUsersLimitIsClamped(t *testing.T) {
	users := &fakeUsers{}
	e := newUsersEcho(t, users)
	get(e, "/v1/users?limit=50000")
	assert.Equal(t, repository.MaxUserLimit, users.limit)
	get(e, "/users?limit=-1")
	assert.Equal(t, repository.DefaultUserLimit, users.limit)
}

func TestGetUser(t *testing.T) {
	users := &fakeUsers{users: []model.User{{ID: 7, Name: "Zain Geidt", Email: "zain@example.com", Status: "active"}}}
	e := newUsersEcho(t, users)

	rec := get(e, "/v1/users/7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"zain@example.com"`)

	rec = get(e, "/v1/users/8")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"user not found"}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, get(e, "/v1/users/abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(e, "/v1/users/0").Code)

	e = newUsersEcho(t, &fakeUsers{err: errors.New("boom")})
	assert.Equal(t, http.StatusInternalServerError, get(e, "/v1/users/7").Code)

	e = newUsersEcho(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(e, "/v1/users/7").Code)
}
