package config

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ValidateCore ensures critical configuration is present.
func (c *Config) ValidateCore() error {
	var missing []string

	if strings.TrimSpace(c.Database.URL) == "" && strings.TrimSpace(c.Database.Name) == "" {
		missing = append(missing, "DATABASE_URL or DB_NAME")
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		missing = append(missing, "PORT")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" || c.JWT.Secret == "change-this-secret" {
		missing = append(missing, "JWT_KEY")
	}
	if strings.TrimSpace(c.Lookup.DeviceAPIKey) == "" {
		missing = append(missing, "DEVICE_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive")
	}

	return nil
}
