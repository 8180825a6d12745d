package config

import (
	"creditline/core"

	configUtil "github.com/fox-one/pkg/config"
)

// Load load config file with CREDITLINE_ env overrides
func Load(configFile string, config *core.Config) error {
	configUtil.AutomaticLoadEnv("CREDITLINE")
	if err := configUtil.LoadYaml(configFile, config); err != nil {
		return err
	}

	defaults(config)

	return config.Validate()
}

func defaults(cfg *core.Config) {
	if cfg.API.Port == 0 {
		cfg.API.Port = 9000
	}

	if cfg.Worker.Spec == "" {
		cfg.Worker.Spec = "@every 10s"
	}

	if cfg.Agreement.CollateralDecimals == 0 {
		cfg.Agreement.CollateralDecimals = 18
	}
}
