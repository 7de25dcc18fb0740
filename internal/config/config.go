package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    int      `yaml:"port"`
		APIKeys []string `yaml:"apiKeys"`
	} `yaml:"server"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	// Registry is the separate vehicle-registry database (Postgres).
	Registry struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"registry"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"ai"`

	Sightengine struct {
		APIUser   string `yaml:"apiUser"`
		APISecret string `yaml:"apiSecret"`
		Endpoint  string `yaml:"endpoint"`
	} `yaml:"sightengine"`

	Pipeline PipelineConfig `yaml:"pipeline"`
}

// PipelineConfig holds the tunables of the verification pipeline. The
// confidence cutoffs were tuned by hand, not calibrated, so they stay
// configurable rather than baked in.
type PipelineConfig struct {
	CallTimeoutSeconds  int `yaml:"callTimeoutSeconds"`
	FetchTimeoutSeconds int `yaml:"fetchTimeoutSeconds"`
	SureThreshold       int `yaml:"sureThreshold"`
	ResearchThreshold   int `yaml:"researchThreshold"`
	MaxInlineBytes      int `yaml:"maxInlineBytes"`
	MaxImageDimension   int `yaml:"maxImageDimension"`
}

// CallTimeout is the per-analyzer-call deadline.
func (p *PipelineConfig) CallTimeout() time.Duration {
	return time.Duration(p.CallTimeoutSeconds) * time.Second
}

// FetchTimeout bounds the evidence image download.
func (p *PipelineConfig) FetchTimeout() time.Duration {
	return time.Duration(p.FetchTimeoutSeconds) * time.Second
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Pipeline.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero-valued pipeline tunables.
func (p *PipelineConfig) ApplyDefaults() {
	if p.CallTimeoutSeconds <= 0 {
		p.CallTimeoutSeconds = 10
	}
	if p.FetchTimeoutSeconds <= 0 {
		p.FetchTimeoutSeconds = 8
	}
	if p.SureThreshold <= 0 {
		p.SureThreshold = 75
	}
	if p.ResearchThreshold <= 0 {
		p.ResearchThreshold = 45
	}
	if p.MaxInlineBytes <= 0 {
		p.MaxInlineBytes = 4 << 20
	}
	if p.MaxImageDimension <= 0 {
		p.MaxImageDimension = 1024
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (vehicle registry)
func (c *Config) RegistryDSN() string {
	ssl := c.Registry.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Registry.Host,
		c.Registry.Port,
		c.Registry.User,
		c.Registry.Password,
		c.Registry.Name,
		ssl,
	)
}
