package stripe

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/form"
	"go.uber.org/zap"
)

type recordedCall struct {
	method string
	path   string
	query  string
}

// recordingBackend satisfies stripe.Backend with canned responses so call
// shapes can be asserted without touching the network.
type recordingBackend struct {
	calls []recordedCall
}

func (b *recordingBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	b.calls = append(b.calls, recordedCall{method: method, path: path})
	if res, ok := v.(*stripe.Customer); ok {
		res.ID = "cus_123"
		res.Email = "a@b.com"
		res.InvoiceSettings = &stripe.CustomerInvoiceSettings{
			DefaultPaymentMethod: &stripe.PaymentMethod{ID: "pm_1"},
		}
	}
	return nil
}

func (b *recordingBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	call := recordedCall{method: method, path: path}
	if body != nil {
		call.query = body.Encode()
	}
	b.calls = append(b.calls, call)
	if res, ok := v.(*stripe.PaymentMethodList); ok {
		res.Data = []*stripe.PaymentMethod{{ID: "pm_1"}, {ID: "pm_2"}}
	}
	return nil
}

func (b *recordingBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (b *recordingBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (b *recordingBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func newTestProvider(b stripe.Backend) *StripeProvider {
	api := &client.API{}
	api.Init("sk_test_123", &stripe.Backends{API: b, Connect: b, Uploads: b})
	return &StripeProvider{api: api, logger: zap.NewNop()}
}

// Attached payment methods only surface through the PaymentMethods list API,
// never through the legacy customer sources.
func TestRetrieveCustomer_ListsAttachedPaymentMethods(t *testing.T) {
	backend := &recordingBackend{}
	p := newTestProvider(backend)

	cust, err := p.RetrieveCustomer(context.Background(), "cus_123")

	assert.NoError(t, err)
	assert.Equal(t, "pm_1", cust.DefaultPaymentMethod)
	assert.Equal(t, []string{"pm_1", "pm_2"}, cust.PaymentSources)

	require.Len(t, backend.calls, 2)
	assert.Equal(t, "/v1/customers/cus_123", backend.calls[0].path)

	list := backend.calls[1]
	assert.Equal(t, "/v1/payment_methods", list.path)
	assert.Contains(t, list.query, "customer=cus_123")
	assert.Contains(t, list.query, "type=card")
}
