package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLocale(t *testing.T) {
	tests := []struct {
		in   string
		want *Locale
	}{
		{"", LocaleFR},
		{"Français", LocaleFR},
		{"francais", LocaleFR},
		{"fr-FR", LocaleFR},
		{"French", LocaleFR},
		{"English", LocaleEN},
		{"Anglais", LocaleEN},
		{"en_US", LocaleEN},
		{" EN ", LocaleEN},
		{"Arabic", LocaleAR},
		{"Arabe", LocaleAR},
		{"العربية", LocaleAR},
		{"ar", LocaleAR},
		{"Klingon", LocaleFR},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Same(t, tt.want, ResolveLocale(tt.in))
		})
	}
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, DefaultLanguage, LanguageName("  "))
	assert.Equal(t, "English", LanguageName(" English "))
}

func TestEnsureDisclaimer(t *testing.T) {
	fr := strings.TrimSpace(LocaleFR.Disclaimer)

	tests := []struct {
		name string
		in   string
		loc  *Locale
		want string
	}{
		{"append", "Le diabète est chronique.", LocaleFR, "Le diabète est chronique." + LocaleFR.Disclaimer},
		{"already present", "Texte." + LocaleFR.Disclaimer, LocaleFR, "Texte." + LocaleFR.Disclaimer},
		{"repeated", "Texte. " + fr + " " + fr + "\n" + fr + "  ", LocaleFR, "Texte." + LocaleFR.Disclaimer},
		{"no space before", "Texte." + fr, LocaleFR, "Texte." + LocaleFR.Disclaimer},
		{"leading", fr + " Buvez de l'eau.", LocaleFR, "Buvez de l'eau." + LocaleFR.Disclaimer},
		{"middle", "Reposez-vous. " + fr + " Buvez de l'eau.", LocaleFR, "Reposez-vous. Buvez de l'eau." + LocaleFR.Disclaimer},
		{"middle across lines", "Reposez-vous.\n" + fr + "\nBuvez de l'eau.", LocaleFR, "Reposez-vous.\nBuvez de l'eau." + LocaleFR.Disclaimer},
		{"middle and end", "A. " + fr + " B." + LocaleFR.Disclaimer, LocaleFR, "A. B." + LocaleFR.Disclaimer},
		{"empty", "", LocaleFR, fr},
		{"only disclaimer", fr, LocaleFR, fr},
		{"english", "Rest well.", LocaleEN, "Rest well. Consult a healthcare professional."},
		{"arabic", "نص.", LocaleAR, "نص." + LocaleAR.Disclaimer},
		{"nil locale", "x", nil, "x" + LocaleFR.Disclaimer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsureDisclaimer(tt.in, tt.loc)
			assert.Equal(t, tt.want, got)

			suffix := LocaleFR.Disclaimer
			if tt.loc != nil {
				suffix = tt.loc.Disclaimer
			}
			assert.Equal(t, 1, strings.Count(got, strings.TrimSpace(suffix)))
			assert.Equal(t, got, EnsureDisclaimer(got, tt.loc), "idempotent")
		})
	}
}
