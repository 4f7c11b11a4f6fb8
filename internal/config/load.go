package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedSchemaVersionConstraint is the schemaVersion major accepted by
// this release.
const SupportedSchemaVersionConstraint = "v1"

// Load parses and validates a configuration document. filePathHint names the
// document in error messages.
func Load(documentYAML []byte, filePathHint string) (*Config, error) {
	if len(bytes.TrimSpace(documentYAML)) == 0 {
		return nil, slerrors.NewConfigError("configuration content cannot be empty", nil)
	}

	if err := ValidateWithSchema(documentYAML); err != nil {
		return nil, slerrors.NewConfigError(fmt.Sprintf("configuration '%s' failed schema validation", filePathHint), err)
	}

	var cfg Config
	if err := yamlUnmarshalStrict(documentYAML, &cfg); err != nil {
		return nil, slerrors.NewConfigError(fmt.Sprintf("failed to parse configuration YAML '%s'", filePathHint), err)
	}
	cfg.FilePath = filePathHint

	if err := checkSchemaVersion(cfg.SchemaVersion, filePathHint); err != nil {
		return nil, err
	}

	if errs := ValidateStructure(&cfg); len(errs) > 0 {
		messages := make([]string, 0, len(errs))
		for _, err := range errs {
			messages = append(messages, err.Error())
		}
		combined := fmt.Sprintf("configuration '%s' has %d validation error(s):\n- %s",
			filePathHint, len(messages), strings.Join(messages, "\n- "))
		return nil, slerrors.NewValidationError(combined, errs[0])
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFromFile reads and loads the configuration document at filePath.
func LoadFromFile(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, slerrors.NewConfigError("configuration file path cannot be empty", nil)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, slerrors.NewConfigError(fmt.Sprintf("failed to get absolute path for '%s'", filePath), err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, slerrors.NewConfigError(fmt.Sprintf("failed to read configuration file '%s'", absPath), err)
	}
	return Load(data, absPath)
}

func checkSchemaVersion(version, filePathHint string) error {
	if version == "" {
		return slerrors.NewValidationError(fmt.Sprintf("configuration '%s' is missing required 'schemaVersion' field", filePathHint), nil)
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return slerrors.NewValidationError(fmt.Sprintf("configuration '%s' has invalid 'schemaVersion' format: '%s'", filePathHint, version), nil)
	}
	if semver.Major(v) != SupportedSchemaVersionConstraint {
		return slerrors.NewValidationError(
			fmt.Sprintf("configuration '%s' schemaVersion '%s' is not compatible with requirement '%s'",
				filePathHint, version, SupportedSchemaVersionConstraint),
			nil,
		)
	}
	return nil
}

// applyDefaults fills the settings a document may omit.
func applyDefaults(cfg *Config) {
	defaults := Default()
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.Backend.Level == "" {
		cfg.Backend.Level = defaults.Backend.Level
	}
	if cfg.Backend.Format == "" {
		cfg.Backend.Format = defaults.Backend.Format
	}
}

// yamlUnmarshalStrict decodes in into out, rejecting unknown fields.
func yamlUnmarshalStrict(in []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(in))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("YAML parsing error: %w", err)
	}
	return nil
}
