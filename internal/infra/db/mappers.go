package db

import (
	"encoding/json"
	"log/slog"
)

func RawMessageToMap(raw json.RawMessage) map[string]any {
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Error("error unmarshaling payload", "err", err)
	}
	return result
}

func MapToRawMessage(data map[string]any) json.RawMessage {
	bytes, err := json.Marshal(data)
	if err != nil {
		slog.Error("error marshaling payload", "err", err)
		return nil
	}
	return json.RawMessage(bytes)
}
