// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Qa-Hub")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/qahub.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.authtoken", "")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "logs/webserver.log")
	viper.SetDefault("webserver.log.rotation", RotationDaily)
	viper.SetDefault("webserver.log.maxsize", 1048576)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "qahub.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "qahub")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "qahub")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("import.defaultseverity", "Moderate")
	viper.SetDefault("import.listseparator", ";")

	viper.SetDefault("dedupe.threshold", 80.0)
}
