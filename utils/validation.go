package utils

import (
	"fmt"
	"math/big"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/pawcademy/pay-go/types"
)

var validate *validator.Validate

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func init() {
	validate = validator.New()
}

// ValidateAmount checks that an amount string is a valid, positive decimal.
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if !dec.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}

	return &dec, nil
}

// ValidateAddress checks a 20-byte hex address.
func ValidateAddress(address string) error {
	if !addressPattern.MatchString(address) {
		return fmt.Errorf("invalid address: %s", address)
	}
	return nil
}

// ValidatePlan validates a catalog entry via struct tags plus amount
// semantics the tags cannot express.
func ValidatePlan(plan types.Plan) error {
	if err := validate.Struct(&plan); err != nil {
		return &types.PayError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid plan %s: %v", plan.ID, err),
		}
	}
	if _, err := ValidateAmount(plan.Amount); err != nil {
		return &types.PayError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid plan %s: %v", plan.ID, err),
		}
	}
	return nil
}

// ValidateConfig validates the full static configuration.
func ValidateConfig(cfg *types.Config) error {
	if cfg == nil {
		return types.NewPayError(types.ErrConfigError, "config is required")
	}
	if err := validate.Struct(cfg); err != nil {
		return &types.PayError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}
	if _, ok := types.DescriptorFor(cfg.Network); !ok {
		return &types.PayError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("unsupported network: %s", cfg.Network),
		}
	}
	if err := ValidateAddress(cfg.Treasury); err != nil {
		return &types.PayError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid treasury: %v", err),
		}
	}
	if cfg.ContractAddress != "" {
		if err := ValidateAddress(cfg.ContractAddress); err != nil {
			return &types.PayError{
				Code:    types.ErrConfigError,
				Message: fmt.Sprintf("invalid contract address: %v", err),
			}
		}
	}
	for _, plan := range cfg.Plans {
		if err := ValidatePlan(plan); err != nil {
			return err
		}
	}
	return nil
}

// ParseAmountWithDecimals converts a decimal amount string to base units
// (wei for 18-decimal chains).
func ParseAmountWithDecimals(amount string, decimals int) (*big.Int, error) {
	dec, err := ValidateAmount(amount)
	if err != nil {
		return nil, err
	}

	multiplier := decimal.NewFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil), 0)
	result := dec.Mul(multiplier)

	if !result.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return result.BigInt(), nil
}

// FormatAmountFromBigInt renders base units back to a decimal string.
func FormatAmountFromBigInt(amount *big.Int, decimals int) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
