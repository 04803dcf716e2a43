package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchPayment_OK(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotPath = r.Header.Get("Authorization"), r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":123456789,"status":"approved","external_reference":"{\"type\":\"deposit\",\"bookingReference\":\"ABCD2345\"}","transaction_amount":1500.5,"currency_id":"ARS","date_approved":"2026-02-01T10:00:00.000-03:00"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "tok", time.Second)
	p, err := c.FetchPayment(context.Background(), "123456789")
	if err != nil {
		t.Fatalf("FetchPayment: %v", err)
	}
	if gotAuth != "Bearer tok" || gotPath != "/v1/payments/123456789" {
		t.Fatalf("unexpected request: auth=%q path=%q", gotAuth, gotPath)
	}
	if p.ID != "123456789" || !p.Approved() || p.TransactionAmount.String() != "1500.5" || p.DateApproved == nil {
		t.Fatalf("unexpected payment: %+v", p)
	}
}

func TestFetchPayment_NotFoundAndTransient(t *testing.T) {
	status := http.StatusNotFound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"nope"}`))
	}))
	defer srv.Close()
	c := New(srv.URL, "", time.Second)

	if _, err := c.FetchPayment(context.Background(), "1"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
	status = http.StatusBadGateway
	_, err := c.FetchPayment(context.Background(), "1")
	if err == nil || errors.Is(err, ErrPaymentNotFound) || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestID_Unmarshal(t *testing.T) {
	cases := map[string]ID{`123`: "123", `"abc"`: "abc", `null`: ""}
	for in, want := range cases {
		var id ID
		if err := id.UnmarshalJSON([]byte(in)); err != nil || id != want {
			t.Fatalf("UnmarshalJSON(%s): expected %q, got %q err=%v", in, want, id, err)
		}
	}
	var id ID
	if err := id.UnmarshalJSON([]byte(`{}`)); err == nil {
		t.Fatalf("expected error for object id")
	}
}

func TestParseReference(t *testing.T) {
	in, err := ParseReference(`{"type":"subscription","professionalId":"prof_123","planId":"plan_123","frequency":"monthly"}`)
	if err != nil || in.Type != IntentSubscription || in.Frequency != FrequencyMonthly {
		t.Fatalf("unexpected intent %+v err=%v", in, err)
	}
	in, err = ParseReference(`{"type":"Deposit","bookingReference":"ABCD2345"}`)
	if err != nil || in.Type != IntentDeposit || in.BookingReference != "ABCD2345" {
		t.Fatalf("unexpected deposit intent %+v err=%v", in, err)
	}
	in, err = ParseReference(`{"type":"gift_card"}`)
	if err != nil || in.Type != "gift_card" {
		t.Fatalf("unknown types must decode, got %+v err=%v", in, err)
	}

	for _, bad := range []string{
		"",
		"not-json",
		`{"type":"subscription","planId":"x"}`,
		`{"type":"subscription","professionalId":"p","planId":"x","frequency":"WEEKLY"}`,
		`{"type":"deposit"}`,
		`["deposit"]`,
	} {
		if _, err := ParseReference(bad); !errors.Is(err, ErrMalformedReference) {
			t.Fatalf("ParseReference(%q): expected ErrMalformedReference, got %v", bad, err)
		}
	}
}
