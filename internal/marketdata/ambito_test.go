package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAmbito(t *testing.T, bodies map[string]string) *Ambito {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	a := NewAmbito()
	a.BaseURL = srv.URL
	a.HTTP = srv.Client()
	return a
}

func TestAmbitoRates(t *testing.T) {
	a := newTestAmbito(t, map[string]string{
		"/dolar/oficial/variacion":  `{"compra": "960,00", "venta": "1.005,50", "fecha": "17/10/2024 - 15:00"}`,
		"/dolar/informal/variacion": `{"valor": "1.190,00"}`,
		"/dolarrava/mep/variacion":  `{"ultimo": "1.150,25", "fecha": "17/10/2024 - 16:00"}`,
	})

	rates, err := a.Rates(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1005.50").Equal(rates.Official), rates.Official.String())
	assert.True(t, decimal.RequireFromString("1190").Equal(rates.Blue), rates.Blue.String())
	assert.True(t, decimal.RequireFromString("1150.25").Equal(rates.MEP), rates.MEP.String())
	assert.Equal(t, "17/10/2024 - 15:00", rates.AsOf)
}

func TestAmbitoMissingRate(t *testing.T) {
	a := newTestAmbito(t, map[string]string{
		"/dolar/oficial/variacion":  `{"venta": "1.005,50"}`,
		"/dolar/informal/variacion": `{"compra": "1.170,00"}`,
		"/dolarrava/mep/variacion":  `{"ultimo": "1.150,25"}`,
	})

	_, err := a.Rates(context.Background())
	assert.ErrorContains(t, err, "blue rate: response has no rate")
}

func TestAmbitoHTTPError(t *testing.T) {
	a := newTestAmbito(t, map[string]string{})

	_, err := a.Rates(context.Background())
	assert.ErrorContains(t, err, "official rate")
	assert.ErrorContains(t, err, "404")
}

func TestParseAmbitoDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1.234,50", want: "1234.5"},
		{in: " 987,1 ", want: "987.1"},
		{in: "1.000.000", want: "1000000"},
		{in: "n/d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmbitoDecimal(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
