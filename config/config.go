// Package config loads the static payment configuration from file and
// environment. The result is resolved once at startup; the settlement
// mode and chain target never change at runtime.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pawcademy/pay-go/types"
	"github.com/pawcademy/pay-go/utils"
)

// Default returns the configuration used when no file overrides it. The
// treasury must still be provided; an empty contract address selects
// simulated settlement.
func Default() types.Config {
	return types.Config{
		Network:        types.NetworkPolygonAmoy,
		ConfirmTimeout: 90 * time.Second,
		PollInterval:   2 * time.Second,
		Plans: []types.Plan{
			{ID: "micro-lesson", Kind: types.PlanMicropayment, Amount: "0.05"},
			{ID: "monthly", Kind: types.PlanSubscription, Amount: "0.2", Months: 1},
		},
	}
}

// Load reads pay.yml (or the explicit path) plus PAY_-prefixed env
// overrides, and validates the result.
func Load(path string) (*types.Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pay")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".pawcademy"))
		}
	}

	v.SetEnvPrefix("PAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("network", defaults.Network.String())
	v.SetDefault("confirmTimeout", defaults.ConfirmTimeout)
	v.SetDefault("pollInterval", defaults.PollInterval)
	v.SetDefault("plans", defaults.Plans)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &types.PayError{
				Code:    types.ErrConfigError,
				Message: "failed to read config: " + err.Error(),
			}
		}
		// No file is fine: defaults plus env must suffice.
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &types.PayError{
			Code:    types.ErrConfigError,
			Message: "failed to unmarshal config: " + err.Error(),
		}
	}

	if err := utils.ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
