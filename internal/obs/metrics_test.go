package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/v1/users/42":              "/v1/users/:id",
		"/v1/stations/7":            "/v1/stations/:id",
		"/v1/lines/12":              "/v1/lines/:id",
		"/v1/users/abc":             "/v1/users/abc",
		"/v1/workorders":            "/v1/workorders",
		"/v1/workorders?state=open": "/v1/workorders",
		"/v1/auth/token":            "/v1/auth/token",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
