package managed

import (
	"testing"

	"github.com/leasekeeper/leasekeeper/pkg/lease"
)

func testAccessor() *Accessor {
	return NewAccessor(lease.Renewable("db/creds/app"), map[string]any{
		"username": "app-user",
		"password": "s3cret",
		"port":     float64(5432),
		"max_conn": 25,
		"ratio":    1.5,
	})
}

func TestAccessorGetString(t *testing.T) {
	a := testAccessor()

	value, ok, err := a.GetString("username")
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v, %v", ok, err)
	}
	if value != "app-user" {
		t.Fatalf("expected app-user, got %q", value)
	}

	_, ok, err = a.GetString("missing")
	if err != nil {
		t.Fatalf("missing key must not error: %v", err)
	}
	if ok {
		t.Fatal("missing key must report !ok")
	}

	_, _, err = a.GetString("port")
	if err == nil {
		t.Fatal("expected type error for non-string value")
	}
}

func TestAccessorStringDefaults(t *testing.T) {
	a := testAccessor()

	if got := a.GetStringDefault("username", "fallback"); got != "app-user" {
		t.Fatalf("expected app-user, got %q", got)
	}
	if got := a.GetStringDefault("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}

	called := false
	got := a.GetStringElse("username", func() string {
		called = true
		return "supplied"
	})
	if got != "app-user" || called {
		t.Fatal("supplier must not run when the key is present")
	}
	if got := a.GetStringElse("missing", func() string { return "supplied" }); got != "supplied" {
		t.Fatalf("expected supplied, got %q", got)
	}
}

func TestAccessorGetInt(t *testing.T) {
	a := testAccessor()

	// JSON numbers arrive as float64.
	value, ok, err := a.GetInt("port")
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v, %v", ok, err)
	}
	if value != 5432 {
		t.Fatalf("expected 5432, got %d", value)
	}

	value, ok, err = a.GetInt("max_conn")
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v, %v", ok, err)
	}
	if value != 25 {
		t.Fatalf("expected 25, got %d", value)
	}

	_, _, err = a.GetInt("ratio")
	if err == nil {
		t.Fatal("expected error for non-integral number")
	}
	_, _, err = a.GetInt("username")
	if err == nil {
		t.Fatal("expected error for string value")
	}

	if got := a.GetIntDefault("missing", 42); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := a.GetInt64Default("port", 0); got != 5432 {
		t.Fatalf("expected 5432, got %d", got)
	}
}

func TestAccessorHasAndKeys(t *testing.T) {
	a := testAccessor()

	if !a.Has("username") || a.Has("missing") {
		t.Fatal("unexpected Has results")
	}
	if a.Keys() != 5 {
		t.Fatalf("expected 5 keys, got %d", a.Keys())
	}
}

func TestAccessorRawIsACopy(t *testing.T) {
	a := testAccessor()

	raw := a.Raw()
	raw["username"] = "tampered"

	value, _, _ := a.GetString("username")
	if value != "app-user" {
		t.Fatal("mutating the raw copy must not affect the accessor")
	}
}

type credentials struct {
	Username string
	Password string
}

func TestAs(t *testing.T) {
	a := testAccessor()

	var applied credentials
	mapped := As(a, func(data map[string]any) credentials {
		return credentials{
			Username: data["username"].(string),
			Password: data["password"].(string),
		}
	}).ApplyTo(func(c credentials) {
		applied = c
	})

	if mapped.Get().Username != "app-user" {
		t.Fatalf("expected mapped username, got %q", mapped.Get().Username)
	}
	if applied.Password != "s3cret" {
		t.Fatalf("expected consumer to receive the value, got %q", applied.Password)
	}
}
