// Package config handles primio configuration loading and management.
package config

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds all tool settings.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// RuntimeConfig locates the game's resource packages.
type RuntimeConfig struct {
	Dir string `yaml:"dir"` // Directory holding chunk/dlc .rpkg files
}

// ImportConfig holds the reimport option toggles.
type ImportConfig struct {
	// ImportTextures imports <texd id>.tga files found beside the scene.
	ImportTextures bool `yaml:"import_textures"`
	// MaxLODRange forces every submesh to the full LOD mask.
	MaxLODRange bool `yaml:"max_lod_range"`
	// OverrideMaterial replaces every submesh's material id with MaterialID.
	OverrideMaterial bool `yaml:"override_material"`
	MaterialID       int  `yaml:"material_id"`
	// OriginalBoneInfo carries bone and collision buffers forward.
	OriginalBoneInfo bool `yaml:"original_bone_info"`

	InvertNormalX bool `yaml:"invert_normal_x"`
	InvertNormalY bool `yaml:"invert_normal_y"`
	InvertNormalZ bool `yaml:"invert_normal_z"`
	// AutoOrientNormals realigns normals against the mesh topology.
	AutoOrientNormals bool `yaml:"auto_orient_normals"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			ImportTextures: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Import.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Validate validates the import options.
func (c *ImportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaterialID, validation.Min(0), validation.Max(0xFFFF)),
	)
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
	)
}
