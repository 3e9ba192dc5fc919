package config

import "github.com/spf13/viper"

// SetDefaults installs every configuration key's default value.
func SetDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")

	viper.SetDefault("debug_server.address", "0.0.0.0:9191")
	viper.SetDefault("debug_server.idle_timeout", "0s")
	viper.SetDefault("debug_server.protocol_version", "0.1.0")

	viper.SetDefault("inspector.enabled", false)
	viper.SetDefault("inspector.address", "127.0.0.1:9192")

	viper.SetDefault("maintenance.enabled", true)
	viper.SetDefault("maintenance.schedule", "*/5 * * * *")

	viper.SetDefault("world.definition_path", "")
	viper.SetDefault("world.tick_interval", "100ms")
}
