package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"compliance-feed/backend/app/history"
)

type legacyRequest struct {
	RequestType string `json:"RequestType"`
}

type legacyExportRequest struct {
	PrivacyDataTypes []string `json:"PrivacyDataTypes"`
}

type legacyDeleteRequest struct {
	PrivacyDataType string `json:"PrivacyDataType"`
}

// ExtractDataTypes reads the data types a legacy request payload asks for.
// Export requests list them, delete requests name exactly one, other request
// types carry none. A payload that cannot be parsed is an error, never an
// empty list.
func ExtractDataTypes(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	var req legacyRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, fmt.Errorf("%w: raw command: %v", history.ErrCorruptRecord, err)
	}
	switch {
	case strings.EqualFold(req.RequestType, string(history.CommandExport)):
		var export legacyExportRequest
		if err := json.Unmarshal([]byte(raw), &export); err != nil {
			return nil, fmt.Errorf("%w: export command: %v", history.ErrCorruptRecord, err)
		}
		if export.PrivacyDataTypes == nil {
			return []string{}, nil
		}
		return export.PrivacyDataTypes, nil
	case strings.EqualFold(req.RequestType, string(history.CommandDelete)):
		var del legacyDeleteRequest
		if err := json.Unmarshal([]byte(raw), &del); err != nil {
			return nil, fmt.Errorf("%w: delete command: %v", history.ErrCorruptRecord, err)
		}
		return []string{del.PrivacyDataType}, nil
	default:
		return []string{}, nil
	}
}
