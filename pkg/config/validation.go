package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/dittophotos/pkg/media"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Memory mappings need a file on local disk
	if cfg.Views.Type == "mmap" && cfg.Content.Type != "filesystem" {
		return fmt.Errorf("views: type mmap requires content type filesystem, got %q", cfg.Content.Type)
	}

	if cfg.API.Enabled && cfg.API.Address == "" {
		return fmt.Errorf("api: address is required when the API is enabled")
	}

	if cfg.Content.Type == "memory" && cfg.Manifest.Type != "memory" {
		return fmt.Errorf("manifest: content type memory requires manifest type memory, got %q", cfg.Manifest.Type)
	}

	for i, ext := range cfg.Library.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext == "webp" {
			// Decodable, not exportable.
			continue
		}
		if _, err := media.ParseFormat(ext); err != nil {
			return fmt.Errorf("library.extensions[%d]: %w", i, err)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
