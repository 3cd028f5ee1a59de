// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Quality  QualityConfig  `yaml:"quality"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width            int   `yaml:"width"`
	Height           int   `yaml:"height"`
	Fullscreen       bool  `yaml:"fullscreen"`
	VSync            bool  `yaml:"vsync"`
	ShadowResolution int32 `yaml:"shadow_resolution"`
}

// QualityConfig holds the user-facing quality preferences. These seed the
// quality controller at startup and are written back when the viewer exits,
// so preference changes survive restarts.
type QualityConfig struct {
	Quality      string  `yaml:"quality"` // low, medium, high, extreme
	AutoAdjust   bool    `yaml:"auto_adjust"`
	TargetFPS    float64 `yaml:"target_fps"`
	ReduceMotion bool    `yaml:"reduce_motion"`
}

// PipelineConfig tunes the progressive loading pipeline.
type PipelineConfig struct {
	// MemoryBudgetMB bounds resident geometry; 0 selects the default.
	MemoryBudgetMB int `yaml:"memory_budget_mb"`
	// Workers sizes the synthesis pool; 0 fits it to the machine.
	Workers int `yaml:"workers"`
	// MinAtoms is the detail-reduction floor; 0 selects the default.
	MinAtoms int `yaml:"min_atoms"`
}

// ViewerConfig holds interaction settings.
type ViewerConfig struct {
	ShowFPS       bool   `yaml:"show_fps"`
	ColorScheme   string `yaml:"color_scheme"` // element, chain, secondary
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MemoryBudgetBytes returns the pipeline budget in bytes, 0 when unset.
func (p PipelineConfig) MemoryBudgetBytes() int64 {
	return int64(p.MemoryBudgetMB) << 20
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:            1280,
			Height:           720,
			Fullscreen:       false,
			VSync:            true,
			ShadowResolution: 2048,
		},
		Quality: QualityConfig{
			Quality:    "high",
			AutoAdjust: true,
			TargetFPS:  60,
		},
		Pipeline: PipelineConfig{
			MemoryBudgetMB: 512,
		},
		Viewer: ViewerConfig{
			ShowFPS:       true,
			ColorScheme:   "element",
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
