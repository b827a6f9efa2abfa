package conf

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a collection of settings validation failures
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings checks the loaded settings for consistency. All failures
// are collected so the user sees every problem at once.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if settings.WebServer.Enabled {
		if err := validatePort(settings.WebServer.Port); err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("webserver.port: %v", err))
		}
	}

	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		ve.Errors = append(ve.Errors, "no database backend enabled, enable output.sqlite or output.mysql")
	}
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		ve.Errors = append(ve.Errors, "only one database backend may be enabled at a time")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		ve.Errors = append(ve.Errors, "output.sqlite.path must not be empty")
	}
	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" {
			ve.Errors = append(ve.Errors, "output.mysql.host must not be empty")
		}
		if err := validatePort(settings.Output.MySQL.Port); err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("output.mysql.port: %v", err))
		}
	}

	if settings.Import.DefaultSeverity == "" {
		ve.Errors = append(ve.Errors, "import.defaultseverity must not be empty")
	}

	if settings.Dedupe.Threshold < 0 || settings.Dedupe.Threshold > 100 {
		ve.Errors = append(ve.Errors, "dedupe.threshold must be between 0 and 100")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validatePort(port string) error {
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}
