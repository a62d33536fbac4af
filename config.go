package lightbeam

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/geometry"
	"github.com/gekko3d/lightbeam/beamrt/material"
	"github.com/gekko3d/lightbeam/beamrt/texture"
)

const transparentQueue = 3000

type ShaderConfig struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	RenderQueue int    `json:"render_queue"`

	// Source is used when Path is empty.
	Source string `json:"-"`
}

// Config is the global beam configuration. It is passed explicitly to
// BeamModule; nothing reads it from package state.
type Config struct {
	GeometryLayer int `json:"geometry_layer"`

	Level0Shader ShaderConfig `json:"level0_shader"`
	Level1Shader ShaderConfig `json:"level1_shader"`

	NoiseSupported      bool       `json:"noise_supported"`
	GlobalNoiseScale    float32    `json:"global_noise_scale"`
	GlobalNoiseVelocity mgl32.Vec3 `json:"global_noise_velocity"`

	// Empty paths select the generated textures.
	PlainTexturePath string `json:"plain_texture_path,omitempty"`
	NoiseTexturePath string `json:"noise_texture_path,omitempty"`
	TextureSize      int    `json:"texture_size"`
	NoiseSeed        int64  `json:"noise_seed"`

	DefaultSides int `json:"default_sides"`
}

func DefaultConfig() Config {
	return Config{
		GeometryLayer:       1,
		Level0Shader:        ShaderConfig{Name: "lightbeam/level0", RenderQueue: transparentQueue},
		Level1Shader:        ShaderConfig{Name: "lightbeam/level1", RenderQueue: transparentQueue},
		NoiseSupported:      true,
		GlobalNoiseScale:    core.DefaultNoiseScale,
		GlobalNoiseVelocity: core.DefaultNoiseVelocity,
		TextureSize:         64,
		NoiseSeed:           1,
		DefaultSides:        core.DefaultGeomSides,
	}
}

// LoadConfig reads a JSON config. Missing fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c Config) Validate() error {
	if c.GlobalNoiseScale < core.MinNoiseScale || c.GlobalNoiseScale > core.MaxNoiseScale {
		return fmt.Errorf("global noise scale must be in [%v, %v], got %v", core.MinNoiseScale, core.MaxNoiseScale, c.GlobalNoiseScale)
	}
	if c.DefaultSides < core.MinGeomSides || c.DefaultSides > core.MaxGeomSides {
		return fmt.Errorf("default sides must be in [%d, %d], got %d", core.MinGeomSides, core.MaxGeomSides, c.DefaultSides)
	}
	if c.TextureSize <= 0 || c.TextureSize&(c.TextureSize-1) != 0 {
		return fmt.Errorf("texture size must be a power of two, got %d", c.TextureSize)
	}
	return nil
}

// Globals is the scene wide noise setup handed to every beam geometry.
func (c Config) Globals() geometry.Globals {
	return geometry.Globals{
		NoiseSupported: c.NoiseSupported,
		NoiseScale:     c.GlobalNoiseScale,
		NoiseVelocity:  c.GlobalNoiseVelocity,
	}
}

// MaterialSettings loads the shaders and default textures named by the config.
func (c Config) MaterialSettings() (material.Settings, error) {
	var s material.Settings
	var err error

	if s.Level0Shader, err = loadShader(c.Level0Shader); err != nil {
		return s, err
	}
	if s.Level1Shader, err = loadShader(c.Level1Shader); err != nil {
		return s, err
	}

	if c.PlainTexturePath != "" {
		s.PlainTexture, err = texture.Load(c.PlainTexturePath, c.TextureSize)
	} else {
		s.PlainTexture, err = texture.Plain(c.TextureSize)
	}
	if err != nil {
		return s, fmt.Errorf("plain texture: %w", err)
	}

	if c.NoiseTexturePath != "" {
		s.NoiseTexture, err = texture.Load(c.NoiseTexturePath, c.TextureSize)
	} else {
		s.NoiseTexture, err = texture.Noise(c.TextureSize, c.NoiseSeed)
	}
	if err != nil {
		return s, fmt.Errorf("noise texture: %w", err)
	}
	return s, nil
}

// loadShader returns nil for an unnamed shader; the material cache then
// reports ErrMissingShader for that level.
func loadShader(sc ShaderConfig) (*material.Shader, error) {
	if sc.Name == "" && sc.Path == "" {
		return nil, nil
	}
	sh := &material.Shader{Name: sc.Name, Path: sc.Path, RenderQueue: sc.RenderQueue, Source: sc.Source}
	if sc.Path != "" {
		src, err := os.ReadFile(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("shader %s: %w", sc.Name, err)
		}
		sh.Source = string(src)
	}
	return sh, nil
}
