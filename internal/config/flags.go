package config

import "flag"

// Flags holds command-line overrides for a flag set.
type Flags struct {
	Config     *string
	Debug      *bool
	Runtime    *string
	NoTextures *bool
	MaxLOD     *bool
	MaterialID *int
	BoneInfo   *bool
	InvertX    *bool
	InvertY    *bool
	InvertZ    *bool
	AutoOrient *bool
	SaveConfig *bool
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:     fs.String("config", "", "Path to config file"),
		Debug:      fs.Bool("debug", false, "Enable debug logging"),
		Runtime:    fs.String("runtime", "", "Runtime directory holding .rpkg files"),
		NoTextures: fs.Bool("no-textures", false, "Skip importing .tga textures"),
		MaxLOD:     fs.Bool("max-lod", false, "Set every submesh to the max LOD range"),
		MaterialID: fs.Int("material-id", -1, "Override every submesh's material id (-1 = keep)"),
		BoneInfo:   fs.Bool("bone-info", false, "Carry original bone info and collision buffers forward"),
		InvertX:    fs.Bool("invert-x", false, "Invert normal X components"),
		InvertY:    fs.Bool("invert-y", false, "Invert normal Y components"),
		InvertZ:    fs.Bool("invert-z", false, "Invert normal Z components"),
		AutoOrient: fs.Bool("auto-orient", false, "Realign normals against mesh topology"),
		SaveConfig: fs.Bool("save-config", false, "Write the effective config to the user config directory"),
	}
}

// ConfigPath returns the explicit config path, if any.
func (f *Flags) ConfigPath() string {
	if f == nil || f.Config == nil {
		return ""
	}
	return *f.Config
}

// SaveRequested reports whether -save-config was passed.
func (f *Flags) SaveRequested() bool {
	return f != nil && f.SaveConfig != nil && *f.SaveConfig
}

// apply applies flag overrides to the config. Boolean flags only ever
// switch an option on.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.Runtime != "" {
		cfg.Runtime.Dir = *f.Runtime
	}
	if *f.NoTextures {
		cfg.Import.ImportTextures = false
	}
	if *f.MaxLOD {
		cfg.Import.MaxLODRange = true
	}
	if *f.MaterialID >= 0 {
		cfg.Import.OverrideMaterial = true
		cfg.Import.MaterialID = *f.MaterialID
	}
	if *f.BoneInfo {
		cfg.Import.OriginalBoneInfo = true
	}
	if *f.InvertX {
		cfg.Import.InvertNormalX = true
	}
	if *f.InvertY {
		cfg.Import.InvertNormalY = true
	}
	if *f.InvertZ {
		cfg.Import.InvertNormalZ = true
	}
	if *f.AutoOrient {
		cfg.Import.AutoOrientNormals = true
	}
}
