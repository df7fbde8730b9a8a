package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	// GraphDB holds the PostgreSQL store with the systems-engineering graph
	GraphDB struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"graphdb"`

	// ParamDB holds the MySQL store with document-extracted parameter tables
	ParamDB struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"paramdb"`

	OpenAI struct {
		APIKeyEnv      string `yaml:"apiKeyEnv"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"openai"`

	// Minio is optional; when the endpoint is empty rendered diagrams are not archived
	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Synthesis struct {
		MaxDepth       int `yaml:"maxDepth"`       // levels below a matched System
		MaxFanOut      int `yaml:"maxFanOut"`      // children pulled per node
		MaxPromptBytes int `yaml:"maxPromptBytes"` // composed prompt size bound
		FallbackTopN   int `yaml:"fallbackTopN"`   // lexical fallback candidates
		ParamRowLimit  int `yaml:"paramRowLimit"`  // rows per pinned table
	} `yaml:"synthesis"`
}

// Load reads the yaml config file and applies defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.GraphDB.SSLMode == "" {
		c.GraphDB.SSLMode = "require"
	}
	if c.OpenAI.APIKeyEnv == "" {
		c.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = 60
	}
	if c.Synthesis.MaxDepth <= 0 {
		c.Synthesis.MaxDepth = 3
	}
	if c.Synthesis.MaxFanOut <= 0 {
		c.Synthesis.MaxFanOut = 25
	}
	if c.Synthesis.MaxPromptBytes <= 0 {
		c.Synthesis.MaxPromptBytes = 24 * 1024
	}
	if c.Synthesis.FallbackTopN <= 0 {
		c.Synthesis.FallbackTopN = 5
	}
	if c.Synthesis.ParamRowLimit <= 0 {
		c.Synthesis.ParamRowLimit = 5
	}
}

// OpenAIKey resolves the API key from the configured environment variable
func (c *Config) OpenAIKey() string {
	return os.Getenv(c.OpenAI.APIKeyEnv)
}

// ReasoningTimeout as a duration
func (c *Config) ReasoningTimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

// GraphDSN builds the PostgreSQL connection string
func (c *Config) GraphDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.GraphDB.Host,
		c.GraphDB.Port,
		c.GraphDB.User,
		c.GraphDB.Password,
		c.GraphDB.Name,
		c.GraphDB.SSLMode,
	)
}

// ParamDSN builds the MySQL connection string
func (c *Config) ParamDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.ParamDB.User,
		c.ParamDB.Password,
		c.ParamDB.Host,
		c.ParamDB.Port,
		c.ParamDB.Name,
	)
}
