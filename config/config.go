package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/thisisjab/mongozilla/api"
	"github.com/thisisjab/mongozilla/schema"
	"github.com/thisisjab/mongozilla/storage"
	"github.com/thisisjab/mongozilla/transform"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	Logger     LoggerConfig      `yaml:"logger"`
	Storage    StorageConfig     `yaml:"storage"`
	API        api.Config        `yaml:"api"`
	SchemaPath string            `yaml:"schema_path"`
	Transforms []TransformConfig `yaml:"transforms"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type TransformConfig struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Collections []string `yaml:"collections"`
	Config      any      `yaml:"config"`
}

// Components holds everything built from the config file that the server
// needs wiring together.
type Components struct {
	API        api.Config
	Storage    *storage.MongoStorage
	Schemas    *schema.Registry
	Transforms map[string][]transform.DocumentTransformer
}

func (cfg Config) Parse() (*Components, *slog.Logger, error) {
	logger, err := parseLoggerConfig(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	st, err := parseStorageConfig(cfg.Storage)
	if err != nil {
		return nil, logger, fmt.Errorf("cannot create storage: %w", err)
	}

	var registry *schema.Registry
	if cfg.SchemaPath != "" {
		registry, err = schema.NewRegistry(logger, cfg.SchemaPath)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot load schemas: %w", err)
		}
	}

	transforms := make(map[string][]transform.DocumentTransformer)
	for _, tc := range cfg.Transforms {
		t, err := parseTransformConfig(tc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create transform `%s`: %w", tc.Name, err)
		}
		for _, collection := range tc.Collections {
			transforms[collection] = append(transforms[collection], t)
		}
	}

	return &Components{
		API:        cfg.API,
		Storage:    st,
		Schemas:    registry,
		Transforms: transforms,
	}, logger, nil
}

func parseLoggerConfig(cfg LoggerConfig) (*slog.Logger, error) {
	var logger *slog.Logger
	var handler slog.Handler

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	w := os.Stdout
	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: true})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	logger = slog.New(handler)

	return logger, nil
}

func parseStorageConfig(cfg StorageConfig) (*storage.MongoStorage, error) {
	switch cfg.Type {
	case "mongo":
		var mongoConfig storage.MongoStorageConfig

		if err := remarshal(cfg.Config, &mongoConfig); err != nil {
			return nil, fmt.Errorf("cannot parse mongo storage config: %w", err)
		}

		s, err := storage.NewMongoStorage(mongoConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create mongo storage: %w", err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

func parseTransformConfig(cfg TransformConfig) (transform.DocumentTransformer, error) {
	switch cfg.Type {
	case "lua":
		var luaConfig transform.LuaTransformerConfig
		if err := remarshal(cfg.Config, &luaConfig); err != nil {
			return nil, fmt.Errorf("cannot create lua transform: %w", err)
		}

		luaConfig.Name = cfg.Name

		t, err := transform.NewLuaTransformer(luaConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create lua transform: %w", err)
		}

		return t, nil
	default:
		return nil, fmt.Errorf("invalid transform type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals it into a new value of the same type.
// This is useful for converting generic interfaces (like map[string]any) into concrete struct types.
// The output parameter must be a pointer to the target type.
func remarshal(input any, output any) error {
	// Marshal the input to YAML
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	// Unmarshal the YAML into the output
	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
