// Package config loads htmlslice configuration: an embedded template provides
// defaults which a user file overrides field by field.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	MarkersConfig struct {
		Paginable  string   `yaml:"paginable"`
		RichText   string   `yaml:"rich_text"`
		TableRow   string   `yaml:"table_row"`
		AtomicTags []string `yaml:"atomic_tags" validate:"dive,required"`
	}

	FooterSlotsConfig struct {
		Page  string `yaml:"page" validate:"required"`
		Count string `yaml:"count" validate:"required"`
	}

	ImagesConfig struct {
		Format      string `yaml:"format" validate:"oneof=jpeg jpg png"`
		JPEGQuality int    `yaml:"jpeg_quality" validate:"min=1,max=100"`
	}

	MetainformationConfig struct {
		Title    string `yaml:"title"`
		Author   string `yaml:"author"`
		Subject  string `yaml:"subject"`
		Keywords string `yaml:"keywords"`
	}

	DocumentConfig struct {
		ContentWidth    float64               `yaml:"content_width" validate:"gt=0,lte=592.28"`
		ContentHeight   float64               `yaml:"content_height" validate:"gte=0,lte=841.89"`
		X               *float64              `yaml:"x,omitempty" validate:"omitempty,gte=0"`
		Y               *float64              `yaml:"y,omitempty" validate:"omitempty,gte=0"`
		Gap             float64               `yaml:"gap" validate:"gte=0"`
		HeaderEveryPage bool                  `yaml:"header_every_page"`
		FooterEveryPage bool                  `yaml:"footer_every_page"`
		Markers         MarkersConfig         `yaml:"markers"`
		FooterSlots     FooterSlotsConfig     `yaml:"footer_slots"`
		Images          ImagesConfig          `yaml:"images"`
		Metainformation MetainformationConfig `yaml:"metainformation"`
		DebugDrawBands  bool                  `yaml:"debug_draw_bands"`
	}

	SelectorsConfig struct {
		Root   string `yaml:"root" validate:"required"`
		Header string `yaml:"header"`
		Footer string `yaml:"footer"`
	}

	OutputConfig struct {
		Mode     string `yaml:"mode" validate:"oneof=save bytes datauri"`
		Filename string `yaml:"filename"`
	}

	BrowserConfig struct {
		Bin           string        `yaml:"bin"`
		NoSandbox     bool          `yaml:"no_sandbox"`
		Timeout       time.Duration `yaml:"timeout" validate:"gt=0s"`
		ViewportWidth int           `yaml:"viewport_width" validate:"gt=0"`
		DeviceScale   float64       `yaml:"device_scale" validate:"gt=0"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig  `yaml:"document"`
		Selectors SelectorsConfig `yaml:"selectors"`
		Output    OutputConfig    `yaml:"output"`
		Browser   BrowserConfig   `yaml:"browser"`
		Logging   LoggingConfig   `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields defined above are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the expanded configuration template and
// validates the result. An empty path returns the defaults.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare expands the configuration template.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

// Dump marshals cfg back to YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
