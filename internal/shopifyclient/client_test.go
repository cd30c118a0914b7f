package shopifyclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/domain/shopify"
)

// --- Helpers ---

func intPtr(v int) *int { return &v }

func newProduct(t *testing.T) pilot.Product {
	t.Helper()
	data, err := pilot.Validate(pilot.Intake{
		Label:       "Tapis Évasion",
		Type:        "TAPIS",
		Category:    "RUNNER",
		Description: "Laine tissée main",
		PriceRange:  "PREMIUM",
		Variants: []pilot.VariantIntake{
			{Size: "REGULAR"},
			{
				Size:             "CUSTOM",
				CustomDimensions: &pilot.DimensionsIntake{Width: intPtr(90), Length: intPtr(320)},
				Price:            intPtr(48990),
			},
		},
		Views: []pilot.ViewIntake{
			{ViewType: "FRONT", ImageURL: "https://cdn.example.com/f.jpg"},
			{ViewType: "DETAIL", ImageURL: "https://cdn.example.com/d.jpg"},
		},
		Status: "PUBLISHED",
	})
	require.NoError(t, err)
	p, err := pilot.New("prod-1", data, time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

// inputFields extracts string fields of variables.input from a request body.
func inputFields(t *testing.T, body []byte) map[string]string {
	t.Helper()
	fields := make(map[string]string)
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "variables" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "input" {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if d.Next() != jx.String {
					raw, err := d.Raw()
					fields[key] = raw.String()
					return err
				}
				s, err := d.Str()
				fields[key] = s
				return err
			})
		})
	})
	require.NoError(t, err)
	return fields
}

func newAdmin(t *testing.T, h http.HandlerFunc) *AdminClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewAdminClient(AdminOptions{
		StoreURL:    srv.URL,
		AccessToken: "shpat_test",
		Timeout:     time.Second,
	})
	require.NoError(t, err)
	return c
}

// --- Tests ---

func TestFakeClient(t *testing.T) {
	f := &FakeClient{}
	id, err := f.SyncProduct(context.Background(), newProduct(t))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^gid://shopify/Product/[0-9a-f]{8}$`), id.String())
	assert.Equal(t, 1, f.Calls())

	other, err := f.SyncProduct(context.Background(), newProduct(t))
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestFakeClient_Failure(t *testing.T) {
	injected := &shopify.APIError{Message: "throttled", StatusCode: 429}
	f := &FakeClient{Err: injected}
	_, err := f.SyncProduct(context.Background(), newProduct(t))
	assert.Same(t, injected, err)
}

func TestFakeClient_LatencyHonorsContext(t *testing.T) {
	f := &FakeClient{Latency: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.SyncProduct(ctx, newProduct(t))
	var netErr *shopify.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdminEndpoint(t *testing.T) {
	assert.Equal(t, "https://maison.myshopify.com/admin/api/2025-01/graphql.json",
		adminEndpoint("maison.myshopify.com", "2025-01"))
	assert.Equal(t, "http://127.0.0.1:8080/admin/api/2024-10/graphql.json",
		adminEndpoint("http://127.0.0.1:8080/", "2024-10"))
}

func TestNewAdminClient_RequiresCredentials(t *testing.T) {
	_, err := NewAdminClient(AdminOptions{AccessToken: "x"})
	require.Error(t, err)
	_, err = NewAdminClient(AdminOptions{StoreURL: "maison.myshopify.com"})
	require.Error(t, err)
}

func TestAdminClient_Success(t *testing.T) {
	bodies := make(chan []byte, 1)
	c := newAdmin(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2025-01/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		bodies <- body
		_, _ = io.WriteString(w, `{"data":{"productSet":{"product":{"id":"gid://shopify/Product/42"},"userErrors":[]}}}`)
	})

	id, err := c.SyncProduct(context.Background(), newProduct(t))
	require.NoError(t, err)
	assert.Equal(t, pilot.ExternalID("gid://shopify/Product/42"), id)

	body := <-bodies
	fields := inputFields(t, body)
	assert.Equal(t, "Tapis Évasion", fields["title"])
	assert.Equal(t, "tapis-evasion", fields["handle"])
	assert.Equal(t, "TAPIS - RUNNER", fields["productType"])
	assert.Equal(t, "Maison Amane", fields["vendor"])
	assert.JSONEq(t, `["PREMIUM","RUNNER"]`, fields["tags"])
	assert.Contains(t, fields["variants"], `"price":"900.00"`)
	assert.Contains(t, fields["variants"], `"name":"90x320"`)
	assert.Contains(t, fields["variants"], `"price":"489.90"`)
	assert.Contains(t, fields["files"], "https://cdn.example.com/d.jpg")
	assert.True(t, strings.HasPrefix(string(body), `{"query":"mutation productSet`))
}

func TestAdminClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "http error",
			status: http.StatusUnauthorized,
			body:   `{"errors":"[API] Invalid API key"}`,
			check: func(t *testing.T, err error) {
				var apiErr *shopify.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
				assert.Contains(t, apiErr.Message, "Invalid API key")
			},
		},
		{
			name:   "graphql errors",
			status: http.StatusOK,
			body:   `{"errors":[{"message":"Throttled"}]}`,
			check: func(t *testing.T, err error) {
				var apiErr *shopify.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "Throttled", apiErr.Message)
			},
		},
		{
			name:   "user errors",
			status: http.StatusOK,
			body: `{"data":{"productSet":{"product":null,"userErrors":[` +
				`{"field":["input","handle"],"message":"Handle already taken","code":"TAKEN"},` +
				`{"field":null,"message":"Too many variants","code":null}]}}}`,
			check: func(t *testing.T, err error) {
				var valErr *shopify.ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, "Handle already taken; Too many variants", valErr.Message)
				assert.Equal(t, []string{"input.handle"}, valErr.Fields)
			},
		},
		{
			name:   "missing product",
			status: http.StatusOK,
			body:   `{"data":{"productSet":null}}`,
			check: func(t *testing.T, err error) {
				var apiErr *shopify.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Contains(t, apiErr.Message, "no product")
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				var apiErr *shopify.APIError
				require.ErrorAs(t, err, &apiErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.SyncProduct(context.Background(), newProduct(t))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestAdminClient_NetworkError(t *testing.T) {
	c, err := NewAdminClient(AdminOptions{
		StoreURL:    "maison.myshopify.com",
		AccessToken: "shpat_test",
		Transport:   failingTransport{},
	})
	require.NoError(t, err)

	_, err = c.SyncProduct(context.Background(), newProduct(t))
	var netErr *shopify.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Contains(t, err.Error(), "connection refused")
}
