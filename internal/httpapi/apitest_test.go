package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"mesworks.org/internal/auth"
	"mesworks.org/internal/mes"
)

// In-memory stores backing the HTTP tests. They implement just enough of the
// store contracts to drive full request flows without a database.

type memUserStore struct {
	seq   int64
	users map[int64]auth.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]auth.User)}
}

func (m *memUserStore) Create(ctx context.Context, u *auth.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return auth.ErrAlreadyExists
		}
	}
	m.seq++
	u.ID = m.seq
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memUserStore) GetAll(ctx context.Context) ([]auth.User, error) {
	out := make([]auth.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUserStore) GetByID(ctx context.Context, id int64) (auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return u, nil
}

func (m *memUserStore) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrNotFound
}

func (m *memUserStore) Update(ctx context.Context, id int64, upd auth.UserUpdate) (auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Permissions != nil {
		u.Permissions = upd.Permissions
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return u, nil
}

func (m *memUserStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUserStore) Count(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

type memStationStore struct {
	seq      int64
	stations map[int64]mes.Station
}

func newMemStationStore() *memStationStore {
	return &memStationStore{stations: make(map[int64]mes.Station)}
}

func (m *memStationStore) GetAll(ctx context.Context) ([]mes.Station, error) {
	out := make([]mes.Station, 0, len(m.stations))
	for _, s := range m.stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStationStore) GetByID(ctx context.Context, id int64) (mes.Station, error) {
	s, ok := m.stations[id]
	if !ok {
		return mes.Station{}, mes.ErrNotFound
	}
	return s, nil
}

func (m *memStationStore) Create(ctx context.Context, s *mes.Station) error {
	m.seq++
	s.ID = m.seq
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	m.stations[s.ID] = *s
	return nil
}

func (m *memStationStore) Update(ctx context.Context, id int64, upd mes.StationUpdate) (mes.Station, error) {
	s, ok := m.stations[id]
	if !ok {
		return mes.Station{}, mes.ErrNotFound
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	s.UpdatedAt = time.Now().UTC()
	m.stations[id] = s
	return s, nil
}

func (m *memStationStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.stations[id]; !ok {
		return mes.ErrNotFound
	}
	delete(m.stations, id)
	return nil
}

type memLineStore struct {
	seq   int64
	lines map[int64]mes.Line
}

func newMemLineStore() *memLineStore {
	return &memLineStore{lines: make(map[int64]mes.Line)}
}

func (m *memLineStore) GetAll(ctx context.Context) ([]mes.Line, error) {
	out := make([]mes.Line, 0, len(m.lines))
	for _, l := range m.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLineStore) GetByID(ctx context.Context, id int64) (mes.Line, error) {
	l, ok := m.lines[id]
	if !ok {
		return mes.Line{}, mes.ErrNotFound
	}
	return l, nil
}

func (m *memLineStore) GetByStationID(ctx context.Context, stationID int64) ([]mes.Line, error) {
	var out []mes.Line
	for _, l := range m.lines {
		for _, sid := range l.StationIDs {
			if sid == stationID {
				out = append(out, l)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLineStore) Create(ctx context.Context, l *mes.Line) error {
	m.seq++
	l.ID = m.seq
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	m.lines[l.ID] = *l
	return nil
}

func (m *memLineStore) Update(ctx context.Context, id int64, upd mes.LineUpdate) (mes.Line, error) {
	l, ok := m.lines[id]
	if !ok {
		return mes.Line{}, mes.ErrNotFound
	}
	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Description != nil {
		l.Description = *upd.Description
	}
	if upd.StationIDs != nil {
		l.StationIDs = upd.StationIDs
	}
	l.UpdatedAt = time.Now().UTC()
	m.lines[id] = l
	return l, nil
}

func (m *memLineStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.lines[id]; !ok {
		return mes.ErrNotFound
	}
	delete(m.lines, id)
	return nil
}

type memWorkOrderStore struct {
	seq    int64
	orders map[int64]mes.WorkOrder
}

func newMemWorkOrderStore() *memWorkOrderStore {
	return &memWorkOrderStore{orders: make(map[int64]mes.WorkOrder)}
}

func (m *memWorkOrderStore) GetAll(ctx context.Context) ([]mes.WorkOrder, error) {
	out := make([]mes.WorkOrder, 0, len(m.orders))
	for _, wo := range m.orders {
		out = append(out, wo)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memWorkOrderStore) GetByID(ctx context.Context, id int64) (mes.WorkOrder, error) {
	wo, ok := m.orders[id]
	if !ok {
		return mes.WorkOrder{}, mes.ErrNotFound
	}
	return wo, nil
}

func (m *memWorkOrderStore) Create(ctx context.Context, wo *mes.WorkOrder) error {
	m.seq++
	wo.ID = m.seq
	wo.CreatedAt = time.Now().UTC()
	wo.UpdatedAt = wo.CreatedAt
	m.orders[wo.ID] = *wo
	return nil
}

func (m *memWorkOrderStore) Update(ctx context.Context, id int64, upd mes.WorkOrderUpdate) (mes.WorkOrder, error) {
	wo, ok := m.orders[id]
	if !ok {
		return mes.WorkOrder{}, mes.ErrNotFound
	}
	if upd.PartNumber != nil {
		wo.PartNumber = *upd.PartNumber
	}
	if upd.Quantity != nil {
		wo.Quantity = *upd.Quantity
	}
	if upd.State != nil {
		wo.State = *upd.State
	}
	wo.UpdatedAt = time.Now().UTC()
	m.orders[id] = wo
	return wo, nil
}

func (m *memWorkOrderStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.orders[id]; !ok {
		return mes.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

type memBookingStore struct {
	seq      int64
	bookings map[int64]mes.Booking
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{bookings: make(map[int64]mes.Booking)}
}

func (m *memBookingStore) GetAll(ctx context.Context) ([]mes.Booking, error) {
	out := make([]mes.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memBookingStore) GetByID(ctx context.Context, id int64) (mes.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return mes.Booking{}, mes.ErrNotFound
	}
	return b, nil
}

func (m *memBookingStore) Create(ctx context.Context, b *mes.Booking) error {
	m.seq++
	b.ID = m.seq
	b.CreatedAt = time.Now().UTC()
	m.bookings[b.ID] = *b
	return nil
}

func (m *memBookingStore) Update(ctx context.Context, id int64, upd mes.BookingUpdate) (mes.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return mes.Booking{}, mes.ErrNotFound
	}
	if upd.Quantity != nil {
		b.Quantity = *upd.Quantity
	}
	if upd.Scrap != nil {
		b.Scrap = *upd.Scrap
	}
	m.bookings[id] = b
	return b, nil
}

func (m *memBookingStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.bookings[id]; !ok {
		return mes.ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

// newTestAPI wires a fully functional API over the in-memory stores.
func newTestAPI(t *testing.T) (*API, *auth.Service) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", "mesworks-test")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	authsvc, err := auth.NewService(newMemUserStore(), tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	mesService, err := mes.NewService(newMemStationStore(), newMemLineStore(), newMemWorkOrderStore(), newMemBookingStore())
	if err != nil {
		t.Fatalf("mes.NewService: %v", err)
	}
	return New(authsvc, mesService, ReadyProbe{}, "test"), authsvc
}

// issueToken mints a token for an already registered identity.
func issueToken(t *testing.T, svc *auth.Service, email, password string) string {
	t.Helper()
	session, err := svc.Authenticate(context.Background(), email, password)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return session.Token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func doForm(t *testing.T, handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
