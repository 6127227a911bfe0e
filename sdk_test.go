package sdk

import (
	"errors"
	"testing"
)

func TestNew_NilHandler(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	if !errors.Is(err, ErrHandlerNil) {
		t.Fatalf("expected ErrHandlerNil, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Handler: func(b []byte) ([]byte, error) { return b, nil }})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	cfg := s.Config()
	if cfg.Namespace != DefaultNamespace {
		t.Fatalf("expected namespace %q, got %q", DefaultNamespace, cfg.Namespace)
	}
	if cfg.Mode != ModeEngine {
		t.Fatalf("expected engine mode, got %v", cfg.Mode)
	}
}

func TestNew_NamespaceOverride(t *testing.T) {
	t.Parallel()

	s, err := New(Config{
		Namespace: "custom",
		Handler:   func(b []byte) ([]byte, error) { return b, nil },
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := s.Config().Namespace; got != "custom" {
		t.Fatalf("expected namespace custom, got %q", got)
	}
}

func TestRuntimeConfig_ZeroValueIsClient(t *testing.T) {
	t.Parallel()

	var cfg RuntimeConfig
	if cfg.Mode != ModeClient {
		t.Fatalf("zero-value mode should be client, got %v", cfg.Mode)
	}
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	if ModeClient.String() != "client" || ModeEngine.String() != "engine" {
		t.Fatalf("unexpected mode names: %q, %q", ModeClient, ModeEngine)
	}
}
