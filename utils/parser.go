package utils

import (
	"encoding/json"
	"fmt"

	"github.com/pawcademy/pay-go/types"
)

// ParsePlan parses and validates a Plan from JSON.
func ParsePlan(data []byte) (*types.Plan, error) {
	var plan types.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, &types.PayError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse plan: %v", err),
		}
	}
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ParseConfig parses and validates a Config from JSON.
func ParseConfig(data []byte) (*types.Config, error) {
	var cfg types.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &types.PayError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse config: %v", err),
		}
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SerializeReceipt converts a Receipt to JSON.
func SerializeReceipt(receipt *types.Receipt) ([]byte, error) {
	return json.Marshal(receipt)
}
