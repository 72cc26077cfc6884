package models

import (
	"encoding/json"

	"go.uber.org/zap"
)

var modelLogger = zap.L().Named("persistence.models")

// encodeList renders a list as JSON, storing an empty array for nil
func encodeList[T any](items []T) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		modelLogger.Warn("failed to encode JSON list", zap.Error(err))
		return "[]"
	}
	return string(b)
}

// decodeList parses a JSON list column. Malformed values are logged and
// decoded as empty so a single bad row does not break list endpoints.
func decodeList[T any](raw, column string) []T {
	if raw == "" || raw == "[]" || raw == "null" {
		return nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		modelLogger.Warn("failed to parse JSON column",
			zap.String("column", column),
			zap.String("raw_json", raw),
			zap.Error(err))
		return nil
	}
	return items
}
