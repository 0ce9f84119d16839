package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
)

func TestBootstrapLoginAndAssetFlow(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	// Bootstrap: the first registered account becomes admin.
	rr := doJSON(t, handler, http.MethodPost, "/v1/users/register-admin", "",
		`{"email":"boss@example.com","password":"s3cret"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register-admin: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	var registered map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if registered["role"] != "admin" {
		t.Fatalf("first account should be admin, got %v", registered["role"])
	}
	if _, ok := registered["password_hash"]; ok {
		t.Fatal("password hash must never be serialized")
	}

	// Form-encoded credential exchange.
	rr = doForm(t, handler, "/v1/auth/token", url.Values{
		"username": {"boss@example.com"},
		"password": {"s3cret"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var session struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if session.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", session.TokenType)
	}
	token := session.AccessToken

	// Create two stations and a line spanning them.
	rr = doJSON(t, handler, http.MethodPost, "/v1/stations", token,
		`{"name":"Press 01","description":"hall A"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create station: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/v1/stations/1" {
		t.Fatalf("unexpected Location: %q", loc)
	}
	rr = doJSON(t, handler, http.MethodPost, "/v1/stations", token,
		`{"name":"Press 02","description":"hall A"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create station 2: expected 201, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/lines", token,
		`{"name":"Line North","description":"","station_ids":[1,2]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create line: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}

	// Reassign the line to station 2 only.
	rr = doJSON(t, handler, http.MethodPut, "/v1/lines/1", token,
		`{"station_ids":[2]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update line: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var line struct {
		StationIDs []int64 `json:"station_ids"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &line); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if len(line.StationIDs) != 1 || line.StationIDs[0] != 2 {
		t.Fatalf("unexpected station ids after reassignment: %v", line.StationIDs)
	}

	// Filter lines by station.
	rr = doJSON(t, handler, http.MethodGet, "/v1/lines?station_id=1", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list lines by station: expected 200, got %d", rr.Code)
	}
	var filtered []json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &filtered); err != nil {
		t.Fatalf("decode filtered lines: %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("station 1 should have no lines after reassignment, got %d", len(filtered))
	}
}

func TestWorkOrderAndBookingFlow(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rr := doJSON(t, handler, http.MethodPost, "/v1/users/register-admin", "",
		`{"email":"boss@example.com","password":"s3cret"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register-admin: expected 201, got %d", rr.Code)
	}
	login := doForm(t, handler, "/v1/auth/token", url.Values{
		"username": {"boss@example.com"},
		"password": {"s3cret"},
	})
	var session struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	token := session.AccessToken

	rr = doJSON(t, handler, http.MethodPost, "/v1/stations", token,
		`{"name":"Press 01","description":""}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create station: expected 201, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/workorders", token,
		`{"number":"WO-1000","part_number":"P-77","quantity":50}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create workorder: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	var wo struct {
		ID    int64  `json:"id"`
		State string `json:"state"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &wo); err != nil {
		t.Fatalf("decode workorder: %v", err)
	}
	if wo.State != "open" {
		t.Fatalf("new work order should be open, got %q", wo.State)
	}

	rr = doJSON(t, handler, http.MethodPut, "/v1/workorders/1", token,
		`{"state":"running"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("start workorder: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, handler, http.MethodPut, "/v1/workorders/1", token,
		`{"state":"paused"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid state: expected 400, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/bookings", token,
		`{"workorder_id":1,"station_id":1,"quantity":10,"scrap":1}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create booking: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, handler, http.MethodDelete, "/v1/bookings/1", token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete booking: expected 204, got %d", rr.Code)
	}
	rr = doJSON(t, handler, http.MethodGet, "/v1/bookings/1", token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("deleted booking: expected 404, got %d", rr.Code)
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rr := doJSON(t, handler, http.MethodPost, "/v1/users/register-admin", "",
		`{"email":"boss@example.com","password":"s3cret"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register-admin: expected 201, got %d", rr.Code)
	}

	cases := []url.Values{
		{"username": {"boss@example.com"}, "password": {"wrong"}},
		{"username": {"ghost@example.com"}, "password": {"s3cret"}},
		{"username": {""}, "password": {""}},
	}
	for _, form := range cases {
		rr := doForm(t, handler, "/v1/auth/token", form)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected uniform 401 for %v, got %d", form, rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if body["error"] != "incorrect username or password" {
			t.Fatalf("unexpected error message: %v", body["error"])
		}
	}
}

func TestDeprecatedLoginAliasStillWorks(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rr := doJSON(t, handler, http.MethodPost, "/v1/users/register-admin", "",
		`{"email":"boss@example.com","password":"s3cret"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register-admin: expected 201, got %d", rr.Code)
	}

	rr = doForm(t, handler, "/v1/users/login", url.Values{
		"username": {"boss@example.com"},
		"password": {"s3cret"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login alias: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestPermissionsEndpointListsCatalogAndSnapshot(t *testing.T) {
	api, svc := newTestAPI(t)
	handler := api.Handler()

	rr := doJSON(t, handler, http.MethodPost, "/v1/users/register-admin", "",
		`{"email":"boss@example.com","password":"s3cret"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register-admin: expected 201, got %d", rr.Code)
	}
	token := issueToken(t, svc, "boss@example.com", "s3cret")

	rr = doJSON(t, handler, http.MethodGet, "/v1/auth/permissions", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("permissions: expected 200, got %d", rr.Code)
	}
	var resp struct {
		Resources   map[string][]string `json:"resources"`
		Permissions []string            `json:"permissions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode permissions: %v", err)
	}
	if len(resp.Resources) == 0 || len(resp.Permissions) == 0 {
		t.Fatal("expected catalog and snapshot to be populated")
	}
	actions, ok := resp.Resources["assign_station"]
	if !ok {
		t.Fatal("expected assign_station in catalog")
	}
	for _, action := range actions {
		if action == "update" {
			t.Fatal("assign_station must not allow update")
		}
	}
}

func TestUserManagementFlow(t *testing.T) {
	api, svc := newTestAPI(t)
	handler := api.Handler()

	rr := doJSON(t, handler, http.MethodPost, "/v1/users/register-admin", "",
		`{"email":"boss@example.com","password":"s3cret"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register-admin: expected 201, got %d", rr.Code)
	}
	token := issueToken(t, svc, "boss@example.com", "s3cret")

	rr = doJSON(t, handler, http.MethodPost, "/v1/users", token,
		`{"email":"op@example.com","password":"pw","role":"user"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/users", token,
		`{"email":"op@example.com","password":"pw","role":"user"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/users", token,
		`{"email":"x@example.com","password":"pw","permissions":["garbage"]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid permission: expected 400, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPut, "/v1/users/2", token,
		`{"permissions":["station:create","station:read"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update user: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, handler, http.MethodDelete, "/v1/users/2", token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete user: expected 204, got %d", rr.Code)
	}
	rr = doJSON(t, handler, http.MethodGet, "/v1/users/2", token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("deleted user: expected 404, got %d", rr.Code)
	}
}
