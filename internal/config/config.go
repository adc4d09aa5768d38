package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/pders01/visionqa/internal/capture"
	"github.com/pders01/visionqa/internal/metrics"
)

// File is the on-disk layout of config.toml
type File struct {
	Storage  StorageSection  `toml:"storage"`
	Vision   VisionSection   `toml:"vision"`
	Capture  CaptureSection  `toml:"capture"`
	Pipeline PipelineSection `toml:"pipeline"`
	Severity SeveritySection `toml:"severity"`
	Log      LogSection      `toml:"log"`
}

type StorageSection struct {
	Root string `toml:"root"`
}

type VisionSection struct {
	Provider      string `toml:"provider"`
	Model         string `toml:"model"`
	OllamaURL     string `toml:"ollama_url"`
	JSONFormat    bool   `toml:"json_format"`
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url"`
}

type CaptureSection struct {
	InputsDir string `toml:"inputs_dir"`
	Timeout   string `toml:"timeout"`
	Headless  bool   `toml:"headless"`
	RemoteURL string `toml:"remote_url"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
}

type PipelineSection struct {
	Concurrency int `toml:"concurrency"`
}

type SeveritySection struct {
	LowMax    int `toml:"low_max"`
	MediumMax int `toml:"medium_max"`
}

type LogSection struct {
	JSON  bool `toml:"json"`
	Debug bool `toml:"debug"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() File {
	shot := capture.DefaultConfig()
	return File{
		Storage: StorageSection{Root: "results"},
		Vision: VisionSection{
			Provider:  "ollama",
			Model:     "llava:7b",
			OllamaURL: "http://localhost:11434",
		},
		Capture: CaptureSection{
			InputsDir: "demo",
			Timeout:   shot.Timeout.String(),
			Headless:  shot.Headless,
			Width:     shot.Width,
			Height:    shot.Height,
		},
		Pipeline: PipelineSection{Concurrency: 4},
		Severity: SeveritySection{
			LowMax:    metrics.DashboardPolicy.LowMax,
			MediumMax: metrics.DashboardPolicy.MediumMax,
		},
	}
}

// SetDefaults registers Defaults with viper
func SetDefaults() {
	d := Defaults()

	viper.SetDefault("storage.root", d.Storage.Root)
	viper.SetDefault("vision.provider", d.Vision.Provider)
	viper.SetDefault("vision.model", d.Vision.Model)
	viper.SetDefault("vision.ollama_url", d.Vision.OllamaURL)
	viper.SetDefault("vision.json_format", d.Vision.JSONFormat)
	viper.SetDefault("vision.openai_api_key", d.Vision.OpenAIAPIKey)
	viper.SetDefault("vision.openai_base_url", d.Vision.OpenAIBaseURL)
	viper.SetDefault("capture.inputs_dir", d.Capture.InputsDir)
	viper.SetDefault("capture.timeout", d.Capture.Timeout)
	viper.SetDefault("capture.headless", d.Capture.Headless)
	viper.SetDefault("capture.remote_url", d.Capture.RemoteURL)
	viper.SetDefault("capture.width", d.Capture.Width)
	viper.SetDefault("capture.height", d.Capture.Height)
	viper.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)
	viper.SetDefault("severity.low_max", d.Severity.LowMax)
	viper.SetDefault("severity.medium_max", d.Severity.MediumMax)
	viper.SetDefault("log.json", d.Log.JSON)
	viper.SetDefault("log.debug", d.Log.Debug)
}

// GetResultsDir returns the storage root for records and artifacts
func GetResultsDir() string {
	return viper.GetString("storage.root")
}

// GetInputsDir returns the directory relative subjects are resolved in
func GetInputsDir() string {
	return viper.GetString("capture.inputs_dir")
}

// GetVisionProvider returns the configured vision provider name
func GetVisionProvider() string {
	return viper.GetString("vision.provider")
}

// GetVisionModel returns the vision model name
func GetVisionModel() string {
	return viper.GetString("vision.model")
}

// GetOllamaURL returns the Ollama API endpoint
func GetOllamaURL() string {
	return viper.GetString("vision.ollama_url")
}

// GetJSONFormat reports whether Ollama should be asked for JSON output
func GetJSONFormat() bool {
	return viper.GetBool("vision.json_format")
}

// GetOpenAIAPIKey returns the OpenAI API key
func GetOpenAIAPIKey() string {
	return viper.GetString("vision.openai_api_key")
}

// GetOpenAIBaseURL returns the OpenAI-compatible endpoint, empty for the default
func GetOpenAIBaseURL() string {
	return viper.GetString("vision.openai_base_url")
}

// GetConcurrency returns how many pairs run at once
func GetConcurrency() int {
	n := viper.GetInt("pipeline.concurrency")
	if n < 1 {
		return 1
	}
	return n
}

// GetLogJSON reports whether log lines are JSON
func GetLogJSON() bool {
	return viper.GetBool("log.json")
}

// GetLogDebug reports whether debug lines are emitted
func GetLogDebug() bool {
	return viper.GetBool("log.debug")
}

// GetCaptureConfig decodes the capture section
func GetCaptureConfig() (capture.Config, error) {
	var cfg capture.Config
	err := viper.UnmarshalKey("capture", &cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return capture.Config{}, fmt.Errorf("invalid capture config: %w", err)
	}
	if cfg.Timeout < time.Second {
		return capture.Config{}, fmt.Errorf("invalid capture config: timeout %s is below 1s", cfg.Timeout)
	}
	return cfg, nil
}

// GetSeverityPolicy returns the three-tier policy for single comparisons
func GetSeverityPolicy() (metrics.Policy, error) {
	policy := metrics.Policy{
		LowMax:    viper.GetInt("severity.low_max"),
		MediumMax: viper.GetInt("severity.medium_max"),
	}
	if err := policy.Validate(); err != nil {
		return metrics.Policy{}, err
	}
	return policy, nil
}

// GetCatalogPolicy returns the severity policy with the identical tier
func GetCatalogPolicy() (metrics.Policy, error) {
	policy, err := GetSeverityPolicy()
	if err != nil {
		return metrics.Policy{}, err
	}
	return policy.WithIdentical(true), nil
}
