package util

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ReadConfig loads ./data/config.yaml or ./config.yaml into v when present. A missing file is not an error,
// every option also comes from the environment.
func ReadConfig(v *viper.Viper) error {
	v.SetConfigName("config")
	v.AddConfigPath("./data/")
	v.AddConfigPath(".")

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}
