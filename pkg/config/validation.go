package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Struct tag validation covers the declarative constraints; custom rules
// cover cross-field requirements that tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The badger catalog store needs a path to persist to
	if cfg.Catalog.Type == "badger" {
		if path, _ := cfg.Catalog.Badger["path"].(string); path == "" {
			return fmt.Errorf("catalog.badger: path is required when catalog.type is badger")
		}
	}

	// The filesystem blob store needs a base path
	if cfg.Blob.Type == "filesystem" {
		if path, _ := cfg.Blob.Filesystem["path"].(string); path == "" {
			return fmt.Errorf("blob.filesystem: path is required when blob.type is filesystem")
		}
	}

	// The S3 blob store needs at least a bucket
	if cfg.Blob.Type == "s3" {
		if bucket, _ := cfg.Blob.S3["bucket"].(string); bucket == "" {
			return fmt.Errorf("blob.s3: bucket is required when blob.type is s3")
		}
	}

	return nil
}

// formatValidationError converts validator errors into readable messages.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	for _, fieldError := range validationErrors {
		return fmt.Errorf("invalid configuration: field %q failed rule %q (value: %v)",
			fieldError.Namespace(), fieldError.Tag(), fieldError.Value())
	}
	return err
}
