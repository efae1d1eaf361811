// Package config loads the posecoach configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
)

// DirName is the per-user data directory under the home directory.
const DirName = ".posecoach"

// Config is the complete posecoach configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Store    StoreConfig     `yaml:"store"`
	Camera   CameraConfig    `yaml:"camera"`
	Detector detector.Config `yaml:"detector"`
	Scoring  scoring.Config  `yaml:"scoring"`
	// ProfilesFile is an optional YAML pose library imported at startup.
	ProfilesFile string `yaml:"profiles_file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"` // empty disables static files
}

// StoreConfig contains database settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// CameraConfig contains capture settings for the local practice mode.
type CameraConfig struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	FPS      int `yaml:"fps"`
}

// Default returns the configuration used when no file is present.
// dataDir is the directory holding the database.
func Default(dataDir string) *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Path: filepath.Join(dataDir, "posecoach.db")},
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    640,
			Height:   480,
			FPS:      10,
		},
		Detector: detector.DefaultConfig(),
		Scoring:  scoring.DefaultConfig(),
	}
}

// DataDir returns ~/.posecoach.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns ~/.posecoach/config.yaml.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the YAML file at path over the defaults. A missing file yields the
// defaults unchanged.
func Load(path, dataDir string) (*Config, error) {
	cfg := Default(dataDir)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for impossible values.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Camera.DeviceID < 0 {
		errs = append(errs, fmt.Errorf("camera.device_id must not be negative, got %d", c.Camera.DeviceID))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera resolution must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS))
	}
	if c.Detector.MaxPoses < 1 {
		errs = append(errs, fmt.Errorf("detector.max_poses must be at least 1, got %d", c.Detector.MaxPoses))
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("detector.min_confidence must be in [0,1], got %g", c.Detector.MinConfidence))
	}
	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring: %w", err))
	}

	return errors.Join(errs...)
}
