//go:build !integration

package i18n

import (
	"fmt"
	"testing"
)

func TestTranslator(t *testing.T) {
	contentBytes := []byte("greeting: Hello\nwelcome_user: Hello %s")

	translator, err := newTranslatorFromBytes(contentBytes)
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		got := translator.T("greeting")
		want := "Hello"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		got := translator.T("nonexistent_key")
		want := "nonexistent_key"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		got := translator.T("welcome_user", "Ali")
		want := "Hello Ali"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})
}

func TestEmbeddedLocale(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	keys := []string{
		"flow.profile_required", "flow.diagnosis_required", "flow.session_incomplete", "flow.unknown_stage",
		"notify.ai_unavailable", "notify.privacy_private", "ritual.summary.static",
	}
	for i := 0; i < 6; i++ {
		keys = append(keys,
			fmt.Sprintf("ritual.phase.%d.name", i),
			fmt.Sprintf("ritual.phase.%d.goal", i),
			fmt.Sprintf("ritual.phase.%d.question", i))
	}
	for _, k := range keys {
		if !tr.Has(k) {
			t.Errorf("en locale is missing %q", k)
		}
	}
	if _, err := NewTranslator(LocalesFS, "xx"); err == nil {
		t.Error("expected an error for a missing locale")
	}
}
