package ui

import (
	"testing"
)

func TestTone_Message(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tests := []struct {
		tone Tone
		msg  string
		want string
	}{
		{ToneChanged, "", "✓"},
		{ToneChanged, "beiwagen updated to v1.2.0", "✓ beiwagen updated to v1.2.0"},
		{ToneRemoved, "", "⚠"},
		{ToneKept, "beiwagen v1.1.0 is up to date", "- beiwagen v1.1.0 is up to date"},
		{ToneFailed, "", "✗"},
		{Tone(42), "", "-"},
	}

	for _, tt := range tests {
		if got := tt.tone.Message(tt.msg); got != tt.want {
			t.Errorf("Tone(%d).Message(%q) = %q, want %q", tt.tone, tt.msg, got, tt.want)
		}
	}
}

func TestTone_SymbolColored(t *testing.T) {
	EnableColors()

	if got := ToneFailed.Symbol(); got == "✗" {
		t.Errorf("Symbol() = %q, want colour codes around the symbol", got)
	}
}

func TestColorToggle(t *testing.T) {
	initial := IsColorEnabled()
	defer func() {
		if initial {
			EnableColors()
		} else {
			DisableColors()
		}
	}()

	DisableColors()
	if IsColorEnabled() {
		t.Error("IsColorEnabled() = true after DisableColors")
	}
	EnableColors()
	if !IsColorEnabled() {
		t.Error("IsColorEnabled() = false after EnableColors")
	}
}
