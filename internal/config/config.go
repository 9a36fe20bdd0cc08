package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrInvalidOptions marks a bad or missing run options payload. It is fatal
// and reported before any event is emitted.
var ErrInvalidOptions = errors.New("invalid run options")

// RunOptions are the caller-supplied parameters for one run. They are parsed
// once at startup and never mutated afterwards.
type RunOptions struct {
	MediaPath    string  `json:"mediaPath"`
	Confidence   float64 `json:"confidence"`
	ImageSize    int     `json:"imageSize"`
	DetectPerson bool    `json:"detectPerson"`
	DetectCar    bool    `json:"detectCar"`
	ModelType    string  `json:"modelType"`
}

// ParseOptions decodes the JSON options payload, applying defaults for absent
// fields. Decoding over a pre-filled struct keeps the boolean defaults when
// the caller omits them.
func ParseOptions(raw string) (*RunOptions, error) {
	opts := &RunOptions{
		Confidence:   0.25,
		ImageSize:    640,
		DetectPerson: true,
		DetectCar:    true,
		ModelType:    "yolov8m",
	}

	if err := json.Unmarshal([]byte(raw), opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	if opts.MediaPath == "" {
		return nil, fmt.Errorf("%w: mediaPath is required", ErrInvalidOptions)
	}
	if opts.Confidence < 0 || opts.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range [0,1]", ErrInvalidOptions, opts.Confidence)
	}
	if opts.ImageSize <= 0 {
		return nil, fmt.Errorf("%w: imageSize must be positive", ErrInvalidOptions)
	}

	return opts, nil
}

// Settings are the operational knobs of the service, read from the
// environment. They are not part of the caller-facing options contract.
type Settings struct {
	OutputDirectory  string
	LogDirectory     string
	ModelDirectory   string
	SamplingInterval int     // process every Nth video frame
	PacingRate       float64 // frame pacing limit, frames per second
}

// Load reads settings from the environment, loading a local .env file first
// if one exists.
func Load() *Settings {
	_ = godotenv.Load()

	return &Settings{
		OutputDirectory:  getEnv("OUTPUT_DIR", filepath.Join(".", "output")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ModelDirectory:   getEnv("MODEL_DIR", "."),
		SamplingInterval: getEnvAsInt("SAMPLING_INTERVAL", 5),
		PacingRate:       getEnvAsFloat("PACING_RATE", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
