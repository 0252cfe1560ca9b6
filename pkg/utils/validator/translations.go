package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var customTranslations = map[string]map[string]string{
	LangEN: {
		TagNotBlank:  "{0} must not be blank",
		TagNoControl: "{0} must not contain control characters",
	},
	LangFR: {
		TagNotBlank:  "{0} ne doit pas être vide",
		TagNoControl: "{0} ne doit pas contenir de caractères de contrôle",
	},
}

func (v *Validator) registerCustomTranslations() {
	for lang, messages := range customTranslations {
		trans := v.GetTranslator(lang)
		for tag, message := range messages {
			registerTranslation(v.validate, trans, tag, message)
		}
	}
}

// RegisterTranslation registers a single translation override.
func (v *Validator) RegisterTranslation(lang, tag, message string) {
	registerTranslation(v.validate, v.GetTranslator(lang), tag, message)
}

func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}
