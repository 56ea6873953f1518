package utils

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAssetFetcher_RefusesLoopbackHosts(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.Write([]byte("internal-secret"))
	}))
	defer srv.Close()

	f := &AssetFetcher{}
	data, err := f.Fetch(context.Background(), srv.URL+"/logo.png")
	if !errors.Is(err, ErrBlockedAddress) {
		t.Fatalf("expected ErrBlockedAddress, got %v", err)
	}
	if hit || data != nil {
		t.Fatalf("loopback server must not be contacted (hit=%v, data=%q)", hit, data)
	}

	loadErr := &AssetLoadError{Ref: srv.URL, Err: err}
	if !errors.Is(loadErr, ErrBlockedAddress) {
		t.Fatalf("AssetLoadError should unwrap to the dial failure")
	}
}

func TestIsPublicIP(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", false},
		{"10.1.2.3", false},
		{"172.16.0.9", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"0.0.0.0", false},
		{"::1", false},
		{"fd00::1", false},
		{"8.8.8.8", true},
		{"2606:4700::1111", true},
	}
	for _, tc := range cases {
		if got := isPublicIP(net.ParseIP(tc.ip)); got != tc.want {
			t.Fatalf("isPublicIP(%s) expected %v, got %v", tc.ip, tc.want, got)
		}
	}
}

func TestAssetFetcher_LocalAndDataRefs(t *testing.T) {
	ctx := context.Background()
	local := LocalBlobStore{Dir: t.TempDir()}
	ref, err := local.Put(ctx, "logos/a.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	f := &AssetFetcher{Local: local}

	data, err := f.Fetch(ctx, ref)
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("local ref: data=%q err=%v", data, err)
	}

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("inline"))
	data, err = f.Fetch(ctx, uri)
	if err != nil || string(data) != "inline" {
		t.Fatalf("data uri: data=%q err=%v", data, err)
	}

	for _, bad := range []string{"", "ftp://example.com/a.png", "data:image/png,notbase64", "/uploads/../secret"} {
		if _, err := f.Fetch(ctx, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
