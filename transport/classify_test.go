package transport

import (
	"testing"

	meal "github.com/larcherlucas/meal"
)

func TestClassifyStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   meal.Kind
	}{
		{"unauthorized", 401, `{"error":"token invalide"}`, meal.KindUnauthenticated},
		{"forbidden", 403, `{"error":"accès refusé"}`, meal.KindForbidden},
		{"not found", 404, ``, meal.KindNotFound},
		{"conflict", 409, `{"error":"email déjà utilisé"}`, meal.KindConflict},
		{"validation", 422, `{"message":"champs invalides"}`, meal.KindValidationFailed},
		{"server error", 500, ``, meal.KindServerError},
		{"bad gateway", 502, ``, meal.KindServerError},
		{"teapot", 418, ``, meal.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Classify(tt.status, []byte(tt.body))
			if e.Kind != tt.want {
				t.Errorf("Classify(%d) kind = %v, want %v", tt.status, e.Kind, tt.want)
			}
			if e.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", e.HTTPStatus, tt.status)
			}
			if e.Message == "" {
				t.Error("message must never be empty")
			}
		})
	}
}

func TestClassifyPrefersServerMessage(t *testing.T) {
	e := Classify(409, []byte(`{"error":"Cet email est déjà enregistré"}`))
	if e.Message != "Cet email est déjà enregistré" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestClassifyFieldErrors(t *testing.T) {
	e := Classify(422, []byte(`{"message":"invalide","errors":{"email":"format invalide"}}`))
	if e.FieldErrors["email"] != "format invalide" {
		t.Errorf("FieldErrors = %v", e.FieldErrors)
	}
}

func TestClassifyUpgradeRequired(t *testing.T) {
	e := Classify(403, []byte(`{"error":"Un abonnement premium est requis"}`))
	if !e.UpgradeRequired {
		t.Error("UpgradeRequired = false, want true")
	}

	plain := Classify(403, []byte(`{"error":"accès refusé"}`))
	if plain.UpgradeRequired {
		t.Error("UpgradeRequired = true for a plain 403")
	}
}
