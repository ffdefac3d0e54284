// Package i18n holds the user-facing messages of the API in French and
// English. French is the default.
package i18n

import (
	"golang.org/x/text/language"
)

const defaultLang = "fr"

var matcher = language.NewMatcher([]language.Tag{language.French, language.English})

var messages = map[string]map[string]string{
	"fr": {
		"required":               "Requis",
		"invalid_email":          "Adresse e-mail invalide",
		"must_be_positive":       "Doit être positif",
		"out_of_range":           "Hors limites",
		"invalid_json":           "Corps de requête invalide",
		"validation_failed":      "Données invalides",
		"not_found":              "Introuvable",
		"unauthorized":           "Authentification requise",
		"invalid_credentials":    "Identifiants invalides",
		"rate_limited":           "Trop de requêtes, réessayez plus tard",
		"internal_error":         "Erreur interne",
		"quote_not_validatable":  "Ce devis ne peut pas être validé dans son état actuel",
		"validation_expired":     "Le code de validation a expiré, demandez-en un nouveau",
		"too_many_attempts":      "Nombre maximal de tentatives atteint, demandez un nouveau code",
		"invalid_code":           "Code incorrect",
		"quote_status_invalid":   "Le statut du devis ne permet pas cette opération",
		"quote_already_invoiced": "Ce devis a déjà été facturé",
		"invalid_transition":     "Transition de statut impossible",
		"quote_accepted":         "Devis validé, merci !",
		"validation_code_sent":   "Un code de validation vous a été envoyé par e-mail",
		"quote_request_received": "Votre demande a bien été reçue",
		"render_failed":          "Impossible de générer le document",
		"request_processed":      "Cette demande a déjà été traitée",
	},
	"en": {
		"required":               "Required",
		"invalid_email":          "Invalid email address",
		"must_be_positive":       "Must be positive",
		"out_of_range":           "Out of range",
		"invalid_json":           "Invalid request body",
		"validation_failed":      "Invalid data",
		"not_found":              "Not found",
		"unauthorized":           "Authentication required",
		"invalid_credentials":    "Invalid credentials",
		"rate_limited":           "Too many requests, try again later",
		"internal_error":         "Internal error",
		"quote_not_validatable":  "This quote cannot be validated in its current state",
		"validation_expired":     "The validation code has expired, request a new one",
		"too_many_attempts":      "Too many attempts, request a new code",
		"invalid_code":           "Incorrect code",
		"quote_status_invalid":   "The quote status does not allow this operation",
		"quote_already_invoiced": "This quote has already been invoiced",
		"invalid_transition":     "Status transition not allowed",
		"quote_accepted":         "Quote accepted, thank you!",
		"validation_code_sent":   "A validation code has been emailed to you",
		"quote_request_received": "Your request has been received",
		"render_failed":          "Unable to generate the document",
		"request_processed":      "This request has already been processed",
	},
}

// DetectLanguage picks fr or en from an Accept-Language header, fr by default.
func DetectLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return defaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return defaultLang
	}
	if idx == 1 {
		return "en"
	}
	return defaultLang
}

// T translates code into lang, falling back to French and then to the code.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[defaultLang][code]; ok {
		return s
	}
	return code
}
