package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/optimo/constants"
)

// Config holds all application configuration
type Config struct {
	Data     DataConfig     `yaml:"data"`
	OCR      OCRConfig      `yaml:"ocr"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig locates the on-disk working area
type DataConfig struct {
	Dir     string `yaml:"dir"`
	LogFile string `yaml:"log_file"`
}

// OCRConfig holds OCR engine configuration
type OCRConfig struct {
	Engine        string   `yaml:"engine"` // "tesseract" | "gosseract"
	Tesseract     string   `yaml:"tesseract"`
	Lang          string   `yaml:"lang"`
	Variants      []string `yaml:"variants"`
	TessdataDir   string   `yaml:"tessdata_dir"`
	PSM           int      `yaml:"psm"`
	OEM           int      `yaml:"oem"`
	TSVConfidence bool     `yaml:"tsv_confidence"`
	KeepArtifacts bool     `yaml:"keep_artifacts"`
}

// PipelineConfig sizes the worker pool and the per-batch fan-out
type PipelineConfig struct {
	Workers                int           `yaml:"workers"`
	QueueSize              int           `yaml:"queue_size"`
	MaxConcurrentDocuments int           `yaml:"max_concurrent_documents"`
	VariantParallelism     int           `yaml:"variant_parallelism"`
	DocumentTimeout        time.Duration `yaml:"document_timeout"`
}

// StoreConfig configures the optional SQL mirror of the decision log
type StoreConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// RedisConfig configures the optional Redis stream mirror
type RedisConfig struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// ServerConfig holds listener addresses used by the watch command
type ServerConfig struct {
	AdminAddr string `yaml:"admin_addr"`
	GRPCAddr  string `yaml:"grpc_addr"`
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig builds the configuration: defaults, then the optional YAML file at path,
// then environment variables. An empty path skips the file layer.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, NewAppError(StageConfig, fmt.Sprintf("failed to read config %s", path), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, NewAppError(StageConfig, "failed to parse config", err)
		}
	}
	cfg.ApplyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	cpus := runtime.GOMAXPROCS(0)

	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Data.LogFile == "" {
		c.Data.LogFile = "observations.jsonl"
	}
	if c.OCR.Engine == "" {
		c.OCR.Engine = "tesseract"
	}
	if c.OCR.Tesseract == "" {
		c.OCR.Tesseract = "tesseract"
	}
	if c.OCR.Lang == "" {
		c.OCR.Lang = "ita"
	}
	if len(c.OCR.Variants) == 0 {
		c.OCR.Variants = constants.VariantStrings(constants.DefaultVariants())
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = cpus
	}
	if c.Pipeline.QueueSize <= 0 {
		c.Pipeline.QueueSize = 256
	}
	if c.Pipeline.MaxConcurrentDocuments <= 0 {
		c.Pipeline.MaxConcurrentDocuments = 2 * cpus
	}
	if c.Pipeline.VariantParallelism <= 0 {
		c.Pipeline.VariantParallelism = cpus
	}
	if c.Pipeline.DocumentTimeout <= 0 {
		c.Pipeline.DocumentTimeout = 3 * time.Minute
	}
	if c.Store.MaxConns <= 0 {
		c.Store.MaxConns = 4
	}
	if c.Store.MinConns <= 0 {
		c.Store.MinConns = 1
	}
	if c.Store.MaxConnLifetime <= 0 {
		c.Store.MaxConnLifetime = 30 * time.Minute
	}
	if c.Store.DialTimeout <= 0 {
		c.Store.DialTimeout = 3 * time.Second
	}
	if c.Redis.Stream == "" {
		c.Redis.Stream = "optimo:decisions"
	}
	if c.Server.AdminAddr == "" {
		c.Server.AdminAddr = ":9090"
	}
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) applyEnv() {
	c.Data.Dir = getEnv("OPTIMO_DATA_DIR", c.Data.Dir)
	c.OCR.Engine = getEnv("OCR_ENGINE", c.OCR.Engine)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.Lang = getEnv("OCR_LANG", c.OCR.Lang)
	if v := os.Getenv("OCR_VARIANTS"); v != "" {
		c.OCR.Variants = constants.VariantStrings(constants.ParseVariants(v))
	}
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.PSM = getEnvAsInt("OCR_PSM", c.OCR.PSM)
	c.OCR.OEM = getEnvAsInt("OCR_OEM", c.OCR.OEM)
	c.OCR.TSVConfidence = getEnvAsBool("OCR_TSV_CONFIDENCE", c.OCR.TSVConfidence)
	c.OCR.KeepArtifacts = getEnvAsBool("OCR_KEEP_ARTIFACTS", c.OCR.KeepArtifacts)

	c.Pipeline.Workers = getEnvAsInt("PIPELINE_WORKERS", c.Pipeline.Workers)
	c.Pipeline.QueueSize = getEnvAsInt("PIPELINE_QUEUE_SIZE", c.Pipeline.QueueSize)
	c.Pipeline.MaxConcurrentDocuments = getEnvAsInt("PIPELINE_MAX_DOCUMENTS", c.Pipeline.MaxConcurrentDocuments)
	c.Pipeline.VariantParallelism = getEnvAsInt("PIPELINE_VARIANT_PARALLELISM", c.Pipeline.VariantParallelism)
	c.Pipeline.DocumentTimeout = getEnvAsDuration("PIPELINE_DOCUMENT_TIMEOUT", c.Pipeline.DocumentTimeout)

	c.Store.DSN = getEnv("DB_URL", c.Store.DSN)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Stream = getEnv("REDIS_STREAM", c.Redis.Stream)
	c.Server.AdminAddr = getEnv("ADMIN_ADDR", c.Server.AdminAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("data.dir", c.Data.Dir, Required).
		Field("data.log_file", c.Data.LogFile, Required).
		Field("ocr.engine", c.OCR.Engine, OneOf("tesseract", "gosseract")).
		Field("ocr.lang", c.OCR.Lang, Required, TesseractLang).
		Field("ocr.variants", c.OCR.Variants, Required, KnownVariants).
		Field("ocr.psm", c.OCR.PSM, NonNegative).
		Field("ocr.oem", c.OCR.OEM, NonNegative).
		Field("logging.level", strings.ToLower(c.Logging.Level), OneOf("debug", "info", "warn", "error")).
		Field("logging.format", strings.ToLower(c.Logging.Format), OneOf("text", "json"))
	if v.HasErrors() {
		return NewAppError(StageConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// Variants returns the configured variant ids in order.
func (c *Config) Variants() []constants.Variant {
	out := make([]constants.Variant, len(c.OCR.Variants))
	for i, v := range c.OCR.Variants {
		out[i] = constants.Variant(v)
	}
	return out
}
