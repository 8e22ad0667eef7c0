package security

import (
	"errors"
	"net"
	"testing"
)

func TestValidateURLSchemes(t *testing.T) {
	v := NewHTTP()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "file scheme", url: "file:///etc/passwd", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com/x", wantErr: true},
		{name: "javascript", url: "javascript:alert(1)", wantErr: true},
		{name: "missing host", url: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURLDangerousHosts(t *testing.T) {
	v := NewHTTP()

	hosts := []string{
		"http://localhost/admin",
		"http://127.0.0.1:8080/",
		"http://0.0.0.0/",
		"http://169.254.169.254/latest/meta-data/",
		"http://metadata.google.internal/computeMetadata/v1/",
	}
	for _, u := range hosts {
		if err := v.ValidateURL(u); !errors.Is(err, ErrUnsafeURL) {
			t.Errorf("ValidateURL(%q) = %v, want ErrUnsafeURL", u, err)
		}
	}
}

func TestPrivateIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{ip: "10.1.2.3", want: true},
		{ip: "172.16.0.1", want: true},
		{ip: "192.168.1.1", want: true},
		{ip: "127.0.0.1", want: true},
		{ip: "169.254.1.1", want: true},
		{ip: "8.8.8.8", want: false},
		{ip: "1.1.1.1", want: false},
		{ip: "::1", want: true},
		{ip: "fe80::1", want: true},
		{ip: "fd00::1", want: true},
		{ip: "2607:f8b0::1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("bad test IP %q", tt.ip)
			}
			if got := privateIP(ip); got != tt.want {
				t.Errorf("privateIP(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestClientCapsRedirects(t *testing.T) {
	v := NewHTTP()
	c := v.Client()
	if c.CheckRedirect == nil {
		t.Fatal("client missing redirect policy")
	}
	if c.Timeout == 0 {
		t.Error("client missing timeout")
	}
}
