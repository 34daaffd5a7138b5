package sms

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"+254712345678", "254712345678", true},
		{"254712345678", "254712345678", true},
		{"0712345678", "254712345678", true},
		{"712345678", "254712345678", true},
		{"112345678", "254112345678", true},
		{"07 1234-5678", "254712345678", true},
		{"12345", "", false},
		{"", "", false},
		{"not a phone", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizePhone(tc.in)
		assert.Equal(t, tc.valid, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestSendUsesPrimaryProvider(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(Config{
		PrimaryProvider: "blessed_texts",
		Blessed:         ProviderConfig{Endpoint: srv.URL + "/blessed", APIKey: "k", SenderID: "s"},
	})

	require.NoError(t, client.Send("0712345678", "order update"))
	assert.Equal(t, "/blessed", gotPath)
}

func TestSendFailsOverWhenEnabled(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	var fallbackHit bool
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHit = true
		w.WriteHeader(http.StatusOK)
	}))
	defer fallback.Close()

	client := New(Config{
		PrimaryProvider: "blessed_texts",
		EnableFailover:  true,
		Blessed:         ProviderConfig{Endpoint: primary.URL, APIKey: "k", SenderID: "s"},
		Umesikia:        ProviderConfig{Endpoint: fallback.URL, APIKey: "k", AppID: "a", SenderID: "s"},
	})

	require.NoError(t, client.Send("0712345678", "order update"))
	assert.True(t, fallbackHit)
}

func TestSendPropagatesPrimaryErrorWithoutFailover(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	client := New(Config{
		PrimaryProvider: "blessed_texts",
		Blessed:         ProviderConfig{Endpoint: primary.URL, APIKey: "k", SenderID: "s"},
	})

	assert.Error(t, client.Send("0712345678", "order update"))
}

func TestSendRejectsInvalidNumber(t *testing.T) {
	client := New(Config{})
	assert.Error(t, client.Send("12345", "order update"))
}
