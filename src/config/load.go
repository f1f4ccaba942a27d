package config

import (
	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/spf13/viper"
)

// Load reads the TOML file at path into v and unmarshals the merged settings,
// including any flags already bound to v, over NewDefaultConfig. The result is
// validated.
func Load(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, common.NewRunErr("config", common.ConfigError, "read "+path, err)
	}

	conf := NewDefaultConfig()
	if err := v.Unmarshal(conf); err != nil {
		return nil, common.NewRunErr("config", common.ConfigError, "unmarshal "+path, err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}
