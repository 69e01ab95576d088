package transport

import (
	"encoding/json"
	"fmt"
	"strings"

	meal "github.com/larcherlucas/meal"
)

// errorBody is the loose shape of backend error payloads. Revisions of the
// backend use "error" or "message" interchangeably.
type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

var upgradeHints = []string{"abonnement", "premium", "subscription"}

// Classify maps an HTTP error status to a classified error. It is the only
// place raw statuses become error kinds; downstream components add context
// but never re-classify.
func Classify(status int, body []byte) *meal.Error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	message := parsed.Error
	if message == "" {
		message = parsed.Message
	}

	switch {
	case status == 401:
		if message == "" {
			message = "Votre session a expiré. Veuillez vous reconnecter."
		}
		e := meal.NewError(meal.KindUnauthenticated, message)
		e.HTTPStatus = status
		return e

	case status == 403:
		if message == "" {
			message = "Vous n'avez pas accès à cette ressource."
		}
		e := meal.NewError(meal.KindForbidden, message)
		e.HTTPStatus = status
		lower := strings.ToLower(message)
		for _, hint := range upgradeHints {
			if strings.Contains(lower, hint) {
				e.UpgradeRequired = true
				break
			}
		}
		return e

	case status == 404:
		if message == "" {
			message = "Ressource introuvable."
		}
		e := meal.NewError(meal.KindNotFound, message)
		e.HTTPStatus = status
		return e

	case status == 409:
		if message == "" {
			message = "Cette ressource existe déjà."
		}
		e := meal.NewError(meal.KindConflict, message)
		e.HTTPStatus = status
		return e

	case status == 422:
		if message == "" {
			message = "Veuillez vérifier les informations saisies."
		}
		e := meal.NewError(meal.KindValidationFailed, message).WithFieldErrors(parsed.Errors)
		e.HTTPStatus = status
		return e

	case status >= 500:
		if message == "" {
			message = "Une erreur serveur est survenue. Veuillez réessayer ultérieurement."
		}
		e := meal.NewError(meal.KindServerError, message)
		e.HTTPStatus = status
		return e

	default:
		if message == "" {
			message = fmt.Sprintf("Une erreur est survenue (%d).", status)
		}
		e := meal.NewError(meal.KindUnknown, message)
		e.HTTPStatus = status
		return e
	}
}
