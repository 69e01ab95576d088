package transport

import (
	"encoding/json"

	meal "github.com/larcherlucas/meal"
)

// Normalize reduces the backend's heterogeneous success payloads to the
// canonical envelope. Rules, in priority order:
//
//  1. A payload that already matches the envelope (status == "success")
//     passes through unchanged, which makes Normalize idempotent.
//  2. An object carrying "data" plus any of totalCount/pagination/meta
//     keeps those fields alongside data.
//  3. Anything else is wrapped whole as data.
//
// Endpoints disagree on their layout; centralizing the unwrapping here keeps
// call sites from growing divergent ad-hoc versions of the same logic.
func Normalize(body []byte) (*meal.Envelope, error) {
	if len(body) == 0 {
		return &meal.Envelope{Status: "success"}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		// Not a JSON object (array, scalar, string): rule 3.
		if !json.Valid(body) {
			return nil, meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide").WithCause(err)
		}
		return &meal.Envelope{Status: "success", Data: json.RawMessage(body)}, nil
	}

	if raw, ok := fields["status"]; ok {
		var status string
		if err := json.Unmarshal(raw, &status); err == nil && status == "success" {
			var env meal.Envelope
			if err := json.Unmarshal(body, &env); err != nil {
				return nil, meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide").WithCause(err)
			}
			return &env, nil
		}
	}

	data, hasData := fields["data"]
	if hasData {
		_, hasTotal := fields["totalCount"]
		_, hasPagination := fields["pagination"]
		_, hasMeta := fields["meta"]
		if hasTotal || hasPagination || hasMeta {
			env := &meal.Envelope{Status: "success", Data: data}
			if raw, ok := fields["totalCount"]; ok {
				var total int
				if err := json.Unmarshal(raw, &total); err == nil {
					env.TotalCount = &total
				}
			}
			env.Pagination = fields["pagination"]
			env.Meta = fields["meta"]
			return env, nil
		}
	}

	return &meal.Envelope{Status: "success", Data: json.RawMessage(body)}, nil
}
