package cmd

import (
	"errors"
	"time"

	builtin "github.com/404wolf/livefs/builtin"
	common "github.com/404wolf/livefs/common"
	"github.com/404wolf/livefs/livefs"
	"github.com/spf13/viper"
)

func setConfigDefaults() {
	viper.SetDefault("mountPoint", "")
	viper.SetDefault("coalesceWindow", livefs.DefaultCoalesceWindow)
	viper.SetDefault("entryTimeout", time.Second)
	viper.SetDefault("attrTimeout", time.Second)
	viper.SetDefault("directIO", true)
	viper.SetDefault("allowOther", false)
	viper.SetDefault("autoUnmount", true)
	viper.SetDefault("goFuseDebug", false)
	viper.SetDefault("tickInterval", time.Second)
	viper.SetDefault("files", builtin.DefaultFiles)
}

// LoadConfig layers flags, LIVEFS_ environment variables, config.yaml and
// defaults, in that order of precedence.
func LoadConfig() *common.LivefsConfig {
	setConfigDefaults()

	// Load config from environment and file
	viper.SetEnvPrefix("livefs")
	viper.AutomaticEnv()
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/livefs")
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if there's no config file
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			common.ReportError("Error reading config file", err)
		}
	}

	// Map to config struct
	return &common.LivefsConfig{
		MountPoint:     viper.GetString("mountPoint"),
		CoalesceWindow: viper.GetDuration("coalesceWindow"),
		EntryTimeout:   viper.GetDuration("entryTimeout"),
		AttrTimeout:    viper.GetDuration("attrTimeout"),
		DirectIO:       viper.GetBool("directIO"),
		AllowOther:     viper.GetBool("allowOther"),
		AutoUnmount:    viper.GetBool("autoUnmount"),
		GoFuseDebug:    viper.GetBool("goFuseDebug"),
		TickInterval:   viper.GetDuration("tickInterval"),
		Files:          viper.GetStringSlice("files"),
	}
}
