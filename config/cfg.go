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
	TemplateFieldName string

	CacheConfig struct {
		Path string        `yaml:"path" validate:"omitempty,filepath"`
		TTL  time.Duration `yaml:"ttl" validate:"gte=0"`
	}

	FetchConfig struct {
		Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
		UserAgent   string        `yaml:"user_agent"`
		AuthToken   SecretString  `yaml:"auth_token,omitempty"`
		MaxBodySize int64         `yaml:"max_body_size" validate:"gte=0"`
		Cache       CacheConfig   `yaml:"cache"`
	}

	InlinerConfig struct {
		BaseURL               string   `yaml:"base_url" validate:"omitempty,url"`
		ComplianceTable       string   `yaml:"compliance_table" sanitize:"assure_file_access"`
		IgnoreTags            []string `yaml:"ignore_tags" validate:"dive,required"`
		RetainPseudoClasses   []string `yaml:"retain_pseudo_classes" validate:"dive,startswith=:"`
		KeepMediaQueries      bool     `yaml:"keep_media_queries"`
		OutputNameTemplate    string   `yaml:"output_name_template"`
		FileNameTransliterate bool     `yaml:"file_name_transliterate"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Inliner   InlinerConfig  `yaml:"inliner"`
		Fetch     FetchConfig    `yaml:"fetch"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
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
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
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

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
