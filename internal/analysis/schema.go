package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// resultsSchema describes the terminal result array:
// [{"participant_id": "string", "candidate_name": "string", "score": 0-100, "reasons": ["string"]}]
const resultsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["participant_id", "score", "reasons"],
    "properties": {
      "participant_id": {"type": "string", "minLength": 1},
      "candidate_name": {"type": "string"},
      "score": {"type": "number", "minimum": 0, "maximum": 100},
      "reasons": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultsSchema))
	})
	return compiledSchema, schemaErr
}

type wireResult struct {
	ParticipantID string   `json:"participant_id"`
	CandidateName string   `json:"candidate_name"`
	Score         float64  `json:"score"`
	Reasons       []string `json:"reasons"`
}

// DecodeResults validates raw against the result schema and decodes it.
// A JSON null is an empty result set.
func DecodeResults(raw json.RawMessage) ([]Result, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []Result{}, nil
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("results schema: %w", err)
	}
	validation, err := schema.Validate(gojsonschema.NewStringLoader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: results are not valid JSON: %v", ErrProtocol, err)
	}
	if !validation.Valid() {
		errs := make([]string, len(validation.Errors()))
		for i, desc := range validation.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: results failed validation: %s", ErrProtocol, strings.Join(errs, "; "))
	}

	var wire []wireResult
	if err := json.Unmarshal([]byte(trimmed), &wire); err != nil {
		return nil, fmt.Errorf("%w: decode results: %v", ErrProtocol, err)
	}

	out := make([]Result, 0, len(wire))
	seen := make(map[string]struct{}, len(wire))
	for _, w := range wire {
		if _, dup := seen[w.ParticipantID]; dup {
			return nil, fmt.Errorf("%w: duplicate participant_id %q", ErrProtocol, w.ParticipantID)
		}
		seen[w.ParticipantID] = struct{}{}
		reasons := w.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		out = append(out, Result{
			ParticipantID: w.ParticipantID,
			CandidateName: w.CandidateName,
			Score:         int(math.Round(w.Score)),
			Reasons:       reasons,
		})
	}
	return out, nil
}
