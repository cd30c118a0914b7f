package shopifyclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/domain/shopify"
)

const (
	headerAccessToken = "X-Shopify-Access-Token"
	maxErrorBody      = 4 << 10
)

const productSetMutation = `mutation productSet($input: ProductSetInput!, $synchronous: Boolean!) {
  productSet(synchronous: $synchronous, input: $input) {
    product { id }
    userErrors { field message code }
  }
}`

var _ shopify.Client = (*AdminClient)(nil)

type AdminOptions struct {
	StoreURL    string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
}

// AdminClient syncs products through the Shopify Admin GraphQL API.
type AdminClient struct {
	endpoint string
	token    string
	http     *http.Client
}

func NewAdminClient(opts AdminOptions) (*AdminClient, error) {
	if opts.StoreURL == "" {
		return nil, errors.New("shopify store url is required")
	}
	if opts.AccessToken == "" {
		return nil, errors.New("shopify access token is required")
	}
	if opts.APIVersion == "" {
		opts.APIVersion = "2025-01"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var otelOpts []otelhttp.Option
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}
	if opts.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
	}

	return &AdminClient{
		endpoint: adminEndpoint(opts.StoreURL, opts.APIVersion),
		token:    opts.AccessToken,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base, otelOpts...),
		},
	}, nil
}

// adminEndpoint accepts both "shop.myshopify.com" and a full base URL.
func adminEndpoint(store, version string) string {
	store = strings.TrimSuffix(store, "/")
	if !strings.HasPrefix(store, "http://") && !strings.HasPrefix(store, "https://") {
		store = "https://" + store
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", store, version)
}

func (c *AdminClient) SyncProduct(ctx context.Context, p pilot.Product) (pilot.ExternalID, error) {
	body := encodeProductSet(shopify.MapProduct(p))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &shopify.NetworkError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAccessToken, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &shopify.NetworkError{Message: "productSet request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &shopify.NetworkError{Message: "read productSet response", Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &shopify.APIError{Message: msg, StatusCode: resp.StatusCode}
	}

	result, err := decodeProductSet(data)
	if err != nil {
		return "", &shopify.APIError{Message: err.Error(), StatusCode: resp.StatusCode}
	}
	switch {
	case len(result.errors) > 0:
		return "", &shopify.APIError{Message: strings.Join(result.errors, "; "), StatusCode: resp.StatusCode}
	case len(result.userErrors) > 0:
		return "", result.validationError()
	case result.productID == "":
		return "", &shopify.APIError{Message: "productSet returned no product", StatusCode: resp.StatusCode}
	}

	zctx.From(ctx).Info("Product pushed to Shopify",
		zap.String("product_id", p.ID.String()),
		zap.String("shopify_product_id", result.productID),
	)
	return pilot.ExternalID(result.productID), nil
}

func encodeProductSet(in shopify.ProductInput) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("query")
	e.Str(productSetMutation)
	e.FieldStart("variables")
	e.ObjStart()
	e.FieldStart("synchronous")
	e.Bool(true)
	e.FieldStart("input")
	encodeProductInput(e, in)
	e.ObjEnd()
	e.ObjEnd()

	return append([]byte(nil), e.Bytes()...)
}

func encodeProductInput(e *jx.Encoder, in shopify.ProductInput) {
	e.ObjStart()
	e.FieldStart("title")
	e.Str(in.Title)
	e.FieldStart("descriptionHtml")
	e.Str(in.DescriptionHTML)
	e.FieldStart("handle")
	e.Str(in.Handle)
	e.FieldStart("productType")
	e.Str(in.ProductType)
	e.FieldStart("vendor")
	e.Str(in.Vendor)
	e.FieldStart("status")
	e.Str(in.Status)

	e.FieldStart("tags")
	e.ArrStart()
	for _, tag := range in.Tags {
		e.Str(tag)
	}
	e.ArrEnd()

	e.FieldStart("productOptions")
	e.ArrStart()
	e.ObjStart()
	e.FieldStart("name")
	e.Str(shopify.DimensionsOption)
	e.FieldStart("values")
	e.ArrStart()
	for _, opt := range in.Options {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(opt)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	e.ArrEnd()

	e.FieldStart("variants")
	e.ArrStart()
	for _, v := range in.Variants {
		e.ObjStart()
		e.FieldStart("optionValues")
		e.ArrStart()
		e.ObjStart()
		e.FieldStart("optionName")
		e.Str(shopify.DimensionsOption)
		e.FieldStart("name")
		e.Str(v.Dimensions)
		e.ObjEnd()
		e.ArrEnd()
		e.FieldStart("price")
		e.Str(v.Price.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("files")
	e.ArrStart()
	for _, url := range in.Files {
		e.ObjStart()
		e.FieldStart("originalSource")
		e.Str(url)
		e.FieldStart("contentType")
		e.Str("IMAGE")
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

type userError struct {
	field   []string
	message string
}

type productSetResult struct {
	productID  string
	userErrors []userError
	errors     []string
}

func (r productSetResult) validationError() *shopify.ValidationError {
	var (
		messages []string
		fields   []string
	)
	for _, ue := range r.userErrors {
		messages = append(messages, ue.message)
		if len(ue.field) > 0 {
			fields = append(fields, strings.Join(ue.field, "."))
		}
	}
	return &shopify.ValidationError{Message: strings.Join(messages, "; "), Fields: fields}
}

func decodeProductSet(data []byte) (productSetResult, error) {
	var r productSetResult
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "data":
			return decodeNullable(d, func(d *jx.Decoder) error {
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "productSet" {
						return d.Skip()
					}
					return decodeNullable(d, func(d *jx.Decoder) error {
						return r.decodePayload(d)
					})
				})
			})
		case "errors":
			return d.Arr(func(d *jx.Decoder) error {
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "message" {
						return d.Skip()
					}
					msg, err := d.Str()
					if err != nil {
						return err
					}
					r.errors = append(r.errors, msg)
					return nil
				})
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return productSetResult{}, errors.Wrap(err, "decode productSet response")
	}
	return r, nil
}

func (r *productSetResult) decodePayload(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product":
			return decodeNullable(d, func(d *jx.Decoder) error {
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "id" {
						return d.Skip()
					}
					id, err := d.Str()
					r.productID = id
					return err
				})
			})
		case "userErrors":
			return d.Arr(func(d *jx.Decoder) error {
				var ue userError
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "message":
						msg, err := d.Str()
						ue.message = msg
						return err
					case "field":
						return decodeNullable(d, func(d *jx.Decoder) error {
							return d.Arr(func(d *jx.Decoder) error {
								f, err := d.Str()
								ue.field = append(ue.field, f)
								return err
							})
						})
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				r.userErrors = append(r.userErrors, ue)
				return nil
			})
		default:
			return d.Skip()
		}
	})
}

func decodeNullable(d *jx.Decoder, f func(d *jx.Decoder) error) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return f(d)
}
