package stripeclient

import (
	"encoding/json"
	"fmt"
)

type apiError struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
}

// parseErr unwraps the JSON blob stripe-go stuffs into error strings,
// keeping only the parts worth logging.
func (s *StripeClient) parseErr(err error) error {
	var ae apiError
	if json.Unmarshal([]byte(err.Error()), &ae) != nil {
		return err
	}
	if ae.RequestID != "" {
		return fmt.Errorf("status %d (%s): %s", ae.Status, ae.RequestID, ae.Message)
	}
	return fmt.Errorf("status %d: %s", ae.Status, ae.Message)
}
