package utils

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

const MaxAssetBytes int64 = 5 << 20

// ErrBlockedAddress is returned when a remote asset resolves to a loopback,
// private, link-local or otherwise non-public address.
var ErrBlockedAddress = errors.New("asset host is not a public address")

// AssetFetcher resolves the image references stored on invoices: data URIs,
// local upload paths, bucket objects and plain http(s) URLs.
type AssetFetcher struct {
	Local      LocalBlobStore
	Bucket     BlobStore
	HTTPClient *http.Client
	MaxBytes   int64
}

func NewAssetFetcherFromEnv() *AssetFetcher {
	f := &AssetFetcher{
		Local:      LocalBlobStore{Dir: GetUploadDir()},
		HTTPClient: NewPublicHTTPClient(10 * time.Second),
		MaxBytes:   MaxAssetBytes,
	}
	if GetStorageProvider() == StorageProviderGCS {
		f.Bucket = GCSBlobStore{}
	}
	return f
}

func (f *AssetFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = MaxAssetBytes
	}

	switch {
	case ref == "":
		return nil, fmt.Errorf("empty reference")
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref, maxBytes)
	case strings.HasPrefix(ref, LocalUploadsPrefix):
		return f.Local.Get(ctx, ref, maxBytes)
	}

	if f.Bucket != nil && ExtractObjectKeyFromURL(ref) != "" {
		return f.Bucket.Get(ctx, ref, maxBytes)
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.fetchHTTP(ctx, ref, maxBytes)
	}
	return nil, fmt.Errorf("unsupported reference")
}

func (f *AssetFetcher) fetchHTTP(ctx context.Context, ref string, maxBytes int64) ([]byte, error) {
	client := f.HTTPClient
	if client == nil {
		client = NewPublicHTTPClient(10 * time.Second)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("asset exceeds %d bytes", maxBytes)
	}
	return data, nil
}

// decodeDataURI handles "data:image/png;base64,...."
func decodeDataURI(ref string, maxBytes int64) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data uri")
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data uri is not base64 encoded")
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+3 {
		return nil, fmt.Errorf("asset exceeds %d bytes", maxBytes)
	}
	return base64.StdEncoding.DecodeString(payload)
}

// NewPublicHTTPClient only dials public addresses. The check runs on the
// resolved IP, so it also covers redirects and DNS names pointing inward.
func NewPublicHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, Control: denyNonPublicAddress}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}
}

func denyNonPublicAddress(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return ErrBlockedAddress
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast())
}
