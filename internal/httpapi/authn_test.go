package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "plain", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "surrounding whitespace", header: "  Bearer abc.def.ghi  ", want: "abc.def.ghi"},
		{name: "empty header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "scheme without token", header: "Bearer   ", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractBearerToken(tc.header)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got token %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsPublicPath(t *testing.T) {
	for _, path := range publicPaths {
		if !isPublicPath(path) {
			t.Fatalf("%s should be public", path)
		}
	}
	for _, path := range []string{"/v1/links", "/v1/orders/o1/status", "/v1/users/me"} {
		if isPublicPath(path) {
			t.Fatalf("%s should require authentication", path)
		}
	}
}

func TestSplitResource(t *testing.T) {
	cases := []struct {
		path     string
		id, rest string
		ok       bool
	}{
		{path: "/v1/links/l1", id: "l1", ok: true},
		{path: "/v1/links/l1/status", id: "l1", rest: "status", ok: true},
		{path: "/v1/links/l1/status/", id: "l1", rest: "status", ok: true},
		{path: "/v1/links/", ok: false},
	}
	for _, tc := range cases {
		id, rest, ok := splitResource(tc.path, "/v1/links/")
		if id != tc.id || rest != tc.rest || ok != tc.ok {
			t.Fatalf("splitResource(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.path, id, rest, ok, tc.id, tc.rest, tc.ok)
		}
	}
}
