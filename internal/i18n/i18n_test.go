package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		header string
		want   language.Tag
	}{
		{"", language.English},
		{"es-AR,es;q=0.9,en;q=0.8", language.Spanish},
		{"pt-BR", language.Portuguese},
		{"de-DE", language.English},
		{"not a header;;", language.English},
	}
	for _, c := range cases {
		got := Match(c.header)
		base, _ := got.Base()
		wantBase, _ := c.want.Base()
		if base != wantBase {
			t.Fatalf("Match(%q): expected %v, got %v", c.header, c.want, got)
		}
	}
}

func TestMessage(t *testing.T) {
	if got := Message("es", KeySlotTaken); got != "este horario acaba de ser reservado" {
		t.Fatalf("unexpected spanish message: %q", got)
	}
	if got := Message("pt-BR", KeyNotFound); got != "não encontrado" {
		t.Fatalf("unexpected portuguese message: %q", got)
	}
	if got := Message("fr", KeyInternal); got != "internal error" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := Message("es", "some_unknown_key"); got != "some_unknown_key" {
		t.Fatalf("expected unknown key echoed, got %q", got)
	}
}

func TestEveryKeyTranslated(t *testing.T) {
	for key, msgs := range translations {
		for i, m := range msgs {
			if m == "" {
				t.Fatalf("%s: missing translation for %v", key, supported[i])
			}
		}
	}
}
