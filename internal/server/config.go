// config.go - Startup configuration validation.
//
// Validates environment variables at startup to fail fast with clear error
// messages rather than runtime failures.
package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ConfigValidationError represents a configuration validation error.
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ConfigValidator accumulates validation errors.
type ConfigValidator struct {
	errors []ConfigValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (v *ConfigValidator) AddError(field, message string) {
	v.errors = append(v.errors, ConfigValidationError{Field: field, Message: message})
}

func (v *ConfigValidator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *ConfigValidator) ErrorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):\n", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidateRequired checks that a required environment variable is set.
func (v *ConfigValidator) ValidateRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		v.AddError(key, "required environment variable not set")
	}
	return value
}

// ValidateMinLength checks minimum string length for set values.
func (v *ConfigValidator) ValidateMinLength(key, value string, minLen int) {
	if value == "" {
		return
	}
	if len(value) < minLen {
		v.AddError(key, fmt.Sprintf("must be at least %d characters long (got %d)", minLen, len(value)))
	}
}

// ValidatePort checks ":8080" or "8080" shapes.
func (v *ConfigValidator) ValidatePort(key, value string) {
	if value == "" {
		return
	}
	port, err := strconv.Atoi(strings.TrimPrefix(value, ":"))
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

// ValidatePositiveInt checks that a set value is a positive integer.
func (v *ConfigValidator) ValidatePositiveInt(key, value string) {
	if value == "" {
		return
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		v.AddError(key, "must be a valid integer")
		return
	}
	if n <= 0 {
		v.AddError(key, "must be a positive integer")
	}
}

// ValidateAllConfiguration checks everything the process needs before it
// binds a socket.
func ValidateAllConfiguration() error {
	v := NewConfigValidator()

	v.ValidateRequired("DATABASE_URL")
	secret := v.ValidateRequired("FSH_SESSION_SECRET")
	v.ValidateMinLength("FSH_SESSION_SECRET", secret, 32)

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		if !strings.HasPrefix(dbURL, "postgres://") && !strings.HasPrefix(dbURL, "postgresql://") {
			v.AddError("DATABASE_URL", "must be a valid PostgreSQL connection string")
		}
	}

	v.ValidatePort("FSH_ADDR", os.Getenv("FSH_ADDR"))
	v.ValidatePositiveInt("FSH_MAX_UPLOAD_BYTES", os.Getenv("FSH_MAX_UPLOAD_BYTES"))

	// Content store: either a complete MinIO config or a local data dir.
	endpoint := os.Getenv("FSH_S3_ENDPOINT")
	if endpoint != "" {
		if os.Getenv("FSH_S3_ACCESS_KEY") == "" || os.Getenv("FSH_S3_SECRET_KEY") == "" || os.Getenv("FSH_BUCKET") == "" {
			v.AddError("FSH_S3_ENDPOINT", "FSH_S3_ACCESS_KEY, FSH_S3_SECRET_KEY, and FSH_BUCKET must be set with it")
		}
	}

	if v.HasErrors() {
		return fmt.Errorf("%s", v.ErrorString())
	}
	return nil
}
