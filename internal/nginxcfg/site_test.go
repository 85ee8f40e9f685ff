package nginxcfg

import (
	"strings"
	"testing"
)

func TestRenderContainsRedirectAndFallback(t *testing.T) {
	out, err := Render("example.com", 8443, "/var/www/example.com")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := string(out)
	for _, want := range []string{
		"server_name example.com;",
		"return 301 https://example.com:8443$request_uri;",
		"listen 127.0.0.1:8080;",
		"root /var/www/example.com;",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("rendered site missing %q:\n%s", want, got)
		}
	}
}

func TestRenderedSiteRoundTripsThroughRedirectPort(t *testing.T) {
	out, err := Render("example.com", 8443, "/var/www/example.com")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	port, err := RedirectPort(out)
	if err != nil {
		t.Fatalf("RedirectPort: %v", err)
	}
	if port != 8443 {
		t.Fatalf("port = %d, want 8443", port)
	}
}

func TestRedirectPortDefaultsTo443(t *testing.T) {
	site := "server {\n    return 301 https://example.com$request_uri;\n}\n"
	port, err := RedirectPort([]byte(site))
	if err != nil {
		t.Fatalf("RedirectPort: %v", err)
	}
	if port != 443 {
		t.Fatalf("port = %d, want 443", port)
	}
}

func TestSetRedirectPortRewrite(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "explicit port",
			in:   "    return 301 https://example.com:8443$request_uri;\n",
			want: "    return 301 https://example.com:9443$request_uri;\n",
		},
		{
			name: "no port implies 443",
			in:   "    return 301 https://example.com$request_uri;\n",
			want: "    return 301 https://example.com:9443$request_uri;\n",
		},
		{
			name: "path after port",
			in:   "    return 301 https://example.com:8443/landing;\n",
			want: "    return 301 https://example.com:9443/landing;\n",
		},
		{
			name: "no port with path",
			in:   "    return 301 https://example.com/landing;\n",
			want: "    return 301 https://example.com:9443/landing;\n",
		},
		{
			name: "query string forwarding",
			in:   "    return 301 https://example.com?$args;\n",
			want: "    return 301 https://example.com:9443?$args;\n",
		},
		{
			name: "statement spanning multiple lines",
			in:   "    return 301\n        https://example.com:8443$request_uri;\n",
			want: "    return 301\n        https://example.com:9443$request_uri;\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := SetRedirectPort([]byte(tc.in), 9443)
			if err != nil {
				t.Fatalf("SetRedirectPort: %v", err)
			}
			if string(out) != tc.want {
				t.Fatalf("got:\n%s\nwant:\n%s", out, tc.want)
			}
		})
	}
}

func TestSetRedirectPortLeavesSurroundingsIntact(t *testing.T) {
	site := "server {\n" +
		"    listen 80;\n" +
		"    server_name example.com;\n" +
		"    return 301 https://example.com:8443$request_uri;\n" +
		"}\n" +
		"server {\n" +
		"    listen 127.0.0.1:8080;\n" +
		"    root /var/www/example.com;\n" +
		"}\n"

	out, err := SetRedirectPort([]byte(site), 9443)
	if err != nil {
		t.Fatalf("SetRedirectPort: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, "listen 127.0.0.1:8080;") {
		t.Fatalf("loopback listen directive was corrupted:\n%s", got)
	}
	if !strings.Contains(got, "return 301 https://example.com:9443$request_uri;") {
		t.Fatalf("redirect rule not rewritten:\n%s", got)
	}
	if strings.Contains(got, "8443") {
		t.Fatalf("old port survived rewrite:\n%s", got)
	}
}

func TestRedirectPortMissingRule(t *testing.T) {
	if _, err := RedirectPort([]byte("server { listen 80; }\n")); err == nil {
		t.Fatal("expected error for config without redirect rule")
	}
	if _, err := SetRedirectPort([]byte("server { listen 80; }\n"), 9443); err == nil {
		t.Fatal("expected error for config without redirect rule")
	}
}
