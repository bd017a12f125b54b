package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Version string        `yaml:"version" default:"1"`
	Site    SiteConfig    `yaml:"site"`
	Server  ServerConfig  `yaml:"server"`
	Editor  EditorConfig  `yaml:"editor"`
	Storage StorageConfig `yaml:"storage"`
	Import  ImportConfig  `yaml:"import"`
	Theme   ThemeConfig   `yaml:"theme"`
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
	// Format is console for humans or json for log shippers.
	Format string `yaml:"format" default:"console"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"The Archive Editor"`
	Description string `yaml:"description" default:"Inline rich-text drafting for The Archive"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
}

type EditorConfig struct {
	Placeholder       string  `yaml:"placeholder" default:"Start writing..."`
	MinWidth          float64 `yaml:"min_width" default:"50"`
	DefaultImageWidth float64 `yaml:"default_image_width" default:"300"`
	FloatMargin       string  `yaml:"float_margin" default:"16px"`
}

type StorageConfig struct {
	// Backend is one of memory, fs, sqlite or s3.
	Backend     string       `yaml:"backend" default:"sqlite"`
	Compression string       `yaml:"compression" default:"zstd"`
	SQLite      SQLiteConfig `yaml:"sqlite"`
	FS          FSConfig     `yaml:"fs"`
	S3          S3Config     `yaml:"s3"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" default:"./database.db"`
}

type FSConfig struct {
	Dir string `yaml:"dir" default:"./drafts"`
}

// S3Config holds the bucket settings. Credentials come from S3_ACCESS_KEY_ID
// and S3_ACCESS_KEY_SECRET.
type S3Config struct {
	Bucket   string `yaml:"bucket" default:"drafts"`
	Endpoint string `yaml:"endpoint" default:""`
	Prefix   string `yaml:"prefix" default:"drafts/"`
	Region   string `yaml:"region" default:"auto"`
}

type ImportConfig struct {
	// Renderer is the markdown flavour of imported posts, mmark or classic.
	Renderer string `yaml:"renderer" default:"mmark"`
}

type ThemeConfig struct {
	Default            string       `yaml:"default" default:"dark-theme"`
	SyntaxHighlighting SyntaxConfig `yaml:"syntax_highlighting"`
}

type SyntaxConfig struct {
	DefaultDark  string `yaml:"default_dark" default:"gruvbox"`
	DefaultLight string `yaml:"default_light" default:"catppuccin-latte"`
}

var AppConfig *Config

const SupportedVersion = "1"

var (
	storageBackends = []string{"memory", "fs", "sqlite", "s3"}
	compressions    = []string{"zstd", "gzip", "none"}
	markdownFlavors = []string{MarkdownMmark, MarkdownClassic}
)

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}

	AppConfig = config
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf("unsupported configuration version %q", c.Version)
	}
	if !slices.Contains(storageBackends, c.Storage.Backend) {
		return fmt.Errorf(ErrUnknownBackendFmt, c.Storage.Backend)
	}
	if !slices.Contains(compressions, c.Storage.Compression) {
		return fmt.Errorf(ErrUnknownCompressionFmt, c.Storage.Compression)
	}
	if !slices.Contains(markdownFlavors, c.Import.Renderer) {
		return fmt.Errorf("unknown import renderer %q", c.Import.Renderer)
	}
	if c.Editor.MinWidth <= 0 {
		return fmt.Errorf("editor.min_width must be positive, got %v", c.Editor.MinWidth)
	}
	if c.Editor.DefaultImageWidth < c.Editor.MinWidth {
		return fmt.Errorf("editor.default_image_width %v is below editor.min_width %v", c.Editor.DefaultImageWidth, c.Editor.MinWidth)
	}
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
