package webex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"callgate/internal/config"
)

func TestOrgRosterPeople(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"id":"acct-1","displayName":"Ada","phoneNumbers":[
				{"directNumber":"+15550101","extension":"101","primary":true}]},
			{"id":"acct-2","displayName":"Bob","phoneNumbers":[]}
		]}`))
	}))
	defer api.Close()

	xsiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2.0/user/acct-1/profile":
			w.Write([]byte(`{"profile":{"userId":"100@example.com"}}`))
		case "/v2.0/user/acct-2/profile":
			http.Error(w, "no xsi profile", http.StatusNotFound)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer xsiSrv.Close()

	cfg := config.WebexConfig{XSIActionsURL: xsiSrv.URL, XSIEventsURL: xsiSrv.URL}
	roster := NewOrgRoster(NewClient(api.URL, "tok"), NewXSI(cfg, "tok", nil), nil)

	people, err := roster.People(context.Background())
	if err != nil {
		t.Fatalf("People: %v", err)
	}
	if len(people) != 1 {
		t.Fatalf("expected the member without an xsi profile to be skipped, got %d", len(people))
	}

	p := people[0]
	if p.XSIUserID != "100@example.com" || p.AccountID != "acct-1" {
		t.Fatalf("unexpected member %+v", p)
	}
	if p.PhoneNumber != "+15550101" || p.Extension != "101" {
		t.Fatalf("unexpected numbers %+v", p)
	}
	if p.Session == nil {
		t.Fatal("expected a session handle")
	}
}

func TestOrgRosterListFailure(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer api.Close()

	cfg := config.WebexConfig{XSIActionsURL: api.URL, XSIEventsURL: api.URL}
	roster := NewOrgRoster(NewClient(api.URL, "tok"), NewXSI(cfg, "tok", nil), nil)
	if _, err := roster.People(context.Background()); err == nil {
		t.Fatal("expected error when the people list is unavailable")
	}
}
