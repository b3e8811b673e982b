// Package config loads buildfirst settings from .env, an optional YAML
// file, and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "buildfirst.yaml"

type Config struct {
	Workspace string       `yaml:"workspace"`
	Dataset   string       `yaml:"dataset"`
	LLM       LLMConfig    `yaml:"llm"`
	Policy    PolicyConfig `yaml:"policy"`
	Store     StoreConfig  `yaml:"store"`
	Serve     ServeConfig  `yaml:"serve"`
}

type LLMConfig struct {
	Provider   string  `yaml:"provider"`
	Model      string  `yaml:"model"`
	APIKey     string  `yaml:"-"`
	RPS        float64 `yaml:"rps"`
	MaxRetries int     `yaml:"max_retries"`
}

type PolicyConfig struct {
	FrontendMaxAttempts    int      `yaml:"frontend_max_attempts"`
	ClassificationKeywords []string `yaml:"classification_keywords"`
	DefaultTask            string   `yaml:"default_task"`
	KNNNeighbors           int      `yaml:"knn_neighbors"`
	ForestTrees            int      `yaml:"forest_trees"`
	ForestMaxDepth         int      `yaml:"forest_max_depth"`
	Explain                *bool    `yaml:"explain"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Cache    bool           `yaml:"cache"`
	Artifact ArtifactConfig `yaml:"s3"`
	DSN      string         `yaml:"-"`
}

type ArtifactConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// CanUseS3 reports whether enough is configured to reach a bucket.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Endpoint != "" && a.Bucket != "" && a.AccessKey != "" && a.SecretKey != ""
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Workspace: ".",
		LLM:       LLMConfig{Provider: "gemini", Model: "gemini-2.5-flash", MaxRetries: 2},
		Policy: PolicyConfig{
			FrontendMaxAttempts:    3,
			ClassificationKeywords: []string{"classif"},
			DefaultTask:            "recommendation",
			KNNNeighbors:           3,
			ForestTrees:            25,
			ForestMaxDepth:         8,
		},
		Store: StoreConfig{
			Backend:  "disk",
			Artifact: ArtifactConfig{Region: "us-east-1", Bucket: "buildfirst-artifacts"},
		},
		Serve: ServeConfig{Addr: ":8000"},
	}
}

// Load reads path (DefaultFile when empty; a missing default file is not an
// error) and applies environment overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	file := path
	if file == "" {
		file = DefaultFile
	}
	raw, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", file, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == "":
	default:
		return cfg, fmt.Errorf("config: %w", err)
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	setString(&cfg.Workspace, "BUILDFIRST_WORKSPACE")
	setString(&cfg.Dataset, "BUILDFIRST_DATASET")
	setString(&cfg.LLM.Provider, "BUILDFIRST_LLM_PROVIDER")
	setString(&cfg.LLM.Model, "BUILDFIRST_LLM_MODEL")
	setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Store.Backend, "BUILDFIRST_STORE")
	setBool(&cfg.Store.Cache, "BUILDFIRST_STORE_CACHE")
	setString(&cfg.Store.DSN, "ARTIFACT_PG_DSN")
	setString(&cfg.Store.Artifact.Endpoint, "ARTIFACT_S3_ENDPOINT")
	setString(&cfg.Store.Artifact.Region, "ARTIFACT_S3_REGION")
	setString(&cfg.Store.Artifact.AccessKey, "ARTIFACT_S3_ACCESS_KEY")
	setString(&cfg.Store.Artifact.SecretKey, "ARTIFACT_S3_SECRET_KEY")
	setString(&cfg.Store.Artifact.Bucket, "ARTIFACT_S3_BUCKET")
	setBool(&cfg.Store.Artifact.UseSSL, "ARTIFACT_S3_USE_SSL")
	setString(&cfg.Serve.Addr, "BUILDFIRST_ADDR")
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Serve.Addr = port
	}
	if v := strings.TrimSpace(os.Getenv("BUILDFIRST_FRONTEND_MAX_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Policy.FrontendMaxAttempts = n
		}
	}
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case "disk", "memory":
	case "s3":
		if !c.Store.Artifact.CanUseS3() {
			errs = append(errs, errors.New("store.backend=s3 needs endpoint, bucket and ARTIFACT_S3_ACCESS_KEY/SECRET_KEY"))
		}
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.backend=postgres needs ARTIFACT_PG_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	switch c.Policy.DefaultTask {
	case "", "recommendation", "classification":
	default:
		errs = append(errs, fmt.Errorf("unknown policy.default_task %q", c.Policy.DefaultTask))
	}
	if c.Policy.FrontendMaxAttempts < 1 {
		errs = append(errs, errors.New("policy.frontend_max_attempts must be at least 1"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		*dst = v
	}
}
