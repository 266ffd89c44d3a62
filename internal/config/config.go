// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

// Package config loads the run configuration from YAML, fills defaults,
// applies environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"Monetary_SVAR_Project/internal/fred"
	"Monetary_SVAR_Project/internal/logger"
	"Monetary_SVAR_Project/internal/series"
	"Monetary_SVAR_Project/internal/snapshot"
	"Monetary_SVAR_Project/internal/svar"
)

const DateLayout = "2006-01-02"

// Environment variables that override the file.
const (
	EnvFredAPIKey    = "FRED_API_KEY"
	EnvDetrend       = "SVAR_DETREND"
	EnvSnapshotPath  = "SVAR_SNAPSHOT_PATH"
	EnvOutputDir     = "SVAR_OUTPUT_DIR"
	EnvAWSAccessKey  = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey  = "AWS_SECRET_ACCESS_KEY"
	EnvAWSRegion     = "AWS_REGION"
	EnvSnapshotS3Bkt = "SVAR_SNAPSHOT_BUCKET"
)

type Config struct {
	Fred     FredConfig     `yaml:"fred"`
	Data     DataConfig     `yaml:"data"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Model    ModelConfig    `yaml:"model"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type FredConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred" validate:"required,url"`
	Timeout           time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
	RequestsPerMinute int           `yaml:"requests_per_minute" default:"120" validate:"gt=0"`
}

type DataConfig struct {
	Start          string       `yaml:"start" default:"1960-01-01" validate:"required,datetime=2006-01-02"`
	End            string       `yaml:"end" default:"2019-10-01" validate:"required,datetime=2006-01-02"`
	PopulationBase string       `yaml:"population_base" default:"2012-01-01" validate:"required,datetime=2006-01-02"`
	Series         SeriesConfig `yaml:"series"`
}

// SeriesConfig maps each model input to its FRED series id.
type SeriesConfig struct {
	GDP        string `yaml:"gdp" default:"GDP" validate:"required"`
	Deflator   string `yaml:"deflator" default:"GDPDEF" validate:"required"`
	CPI        string `yaml:"cpi" default:"CPIAUCSL" validate:"required"`
	Population string `yaml:"population" default:"CNP16OV" validate:"required"`
	FedFunds   string `yaml:"fed_funds" default:"FEDFUNDS" validate:"required"`
}

type SnapshotConfig struct {
	Path    string   `yaml:"path" default:"data/snapshot.parquet" validate:"required"`
	Refresh bool     `yaml:"refresh" default:"true"`
	S3      S3Config `yaml:"s3"`
}

// S3Config is optional; an empty bucket keeps the snapshot local.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Key             string `yaml:"key" default:"svar/snapshot.parquet" validate:"required_with=Bucket"`
	Region          string `yaml:"region" default:"us-east-1" validate:"required_with=Bucket"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type ModelConfig struct {
	Lags           int     `yaml:"lags" default:"4" validate:"min=1"`
	MaxLags        int     `yaml:"max_lags" default:"8" validate:"gtefield=Lags"`
	Deterministic  string  `yaml:"deterministic" default:"const" validate:"oneof=none const trend const_trend"`
	Identification string  `yaml:"identification" default:"cholesky" validate:"oneof=cholesky"`
	Horizon        int     `yaml:"horizon" default:"40" validate:"min=1"`
	ForecastSteps  int     `yaml:"forecast_steps" default:"8" validate:"min=0"`
	Replications   int     `yaml:"replications" default:"500" validate:"min=1"`
	Alpha          float64 `yaml:"alpha" default:"0.05" validate:"gt=0,lt=1"`
	// Seed 0 draws a time-based seed
	Seed    int64 `yaml:"seed" default:"42"`
	Workers int   `yaml:"workers"`
}

type PipelineConfig struct {
	Method      string  `yaml:"method" default:"smoothing-filter" validate:"oneof=linear smoothing-filter"`
	HPLambda    float64 `yaml:"hp_lambda" default:"1600" validate:"gt=0"`
	Plot        bool    `yaml:"plot" default:"true"`
	SaveFigures bool    `yaml:"save_figures" default:"true"`
	OutputDir   string  `yaml:"output_dir" default:"results" validate:"required"`
}

type LogConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output     string `yaml:"output" default:"stderr"`
	MaxSizeMB  int    `yaml:"max_size_mb" default:"50" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" default:"3" validate:"min=0"`
}

type MetricsConfig struct {
	// Textfile is a node-exporter textfile path; empty disables the dump
	Textfile string `yaml:"textfile"`
}

var validate = validator.New()

// Default returns a configuration with every default applied and no file read.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads path over the defaults, then applies environment overrides and
// validates. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvFredAPIKey)); v != "" {
		cfg.Fred.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDetrend)); v != "" {
		cfg.Pipeline.Method = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapshotPath)); v != "" {
		cfg.Snapshot.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputDir)); v != "" {
		cfg.Pipeline.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapshotS3Bkt)); v != "" {
		cfg.Snapshot.S3.Bucket = v
	}
	if cfg.Snapshot.S3.Bucket != "" {
		if v := strings.TrimSpace(os.Getenv(EnvAWSAccessKey)); v != "" {
			cfg.Snapshot.S3.AccessKeyID = v
		}
		if v := strings.TrimSpace(os.Getenv(EnvAWSSecretKey)); v != "" {
			cfg.Snapshot.S3.SecretAccessKey = v
		}
		if v := strings.TrimSpace(os.Getenv(EnvAWSRegion)); v != "" {
			cfg.Snapshot.S3.Region = v
		}
	}
}

// Validate checks struct tags, then the rules that span fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	start, end := c.Data.StartDate(), c.Data.EndDate()
	if !start.Before(end) {
		return fmt.Errorf("invalid configuration: data.start %s is not before data.end %s", c.Data.Start, c.Data.End)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_with":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted %s, got %v", field, fe.Param(), fe.Value())
	case "min", "gt", "gte", "lt":
		return fmt.Sprintf("%s must be %s %s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func mustDate(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return d
}

func (d DataConfig) StartDate() time.Time { return mustDate(d.Start) }

func (d DataConfig) EndDate() time.Time { return mustDate(d.End) }

func (d DataConfig) PopulationBaseDate() time.Time { return mustDate(d.PopulationBase) }

// IDs lists the series ids in acquisition order.
func (s SeriesConfig) IDs() []string {
	return []string{s.GDP, s.Deflator, s.CPI, s.Population, s.FedFunds}
}

func (c *Config) FredClientConfig() fred.Config {
	return fred.Config{
		APIKey:            c.Fred.APIKey,
		BaseURL:           c.Fred.BaseURL,
		Timeout:           c.Fred.Timeout,
		RequestsPerMinute: c.Fred.RequestsPerMinute,
	}
}

func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		Output:     c.Log.Output,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
}

// UseS3 reports whether the snapshot lives in an object store.
func (s SnapshotConfig) UseS3() bool { return s.S3.Bucket != "" }

func (s SnapshotConfig) S3ClientConfig() snapshot.S3Config {
	return snapshot.S3Config{
		Bucket:          s.S3.Bucket,
		Key:             s.S3.Key,
		Region:          s.S3.Region,
		Endpoint:        s.S3.Endpoint,
		PathStyle:       s.S3.PathStyle,
		AccessKeyID:     s.S3.AccessKeyID,
		SecretAccessKey: s.S3.SecretAccessKey,
	}
}

func (m ModelConfig) Spec() (svar.ModelSpec, error) {
	det, err := svar.ParseDeterministic(m.Deterministic)
	if err != nil {
		return svar.ModelSpec{}, err
	}
	return svar.ModelSpec{Lags: m.Lags, Deterministic: det}, nil
}

func (m ModelConfig) BootstrapOptions() svar.BootstrapOptions {
	return svar.BootstrapOptions{
		NReplications: m.Replications,
		Horizon:       m.Horizon,
		Alpha:         m.Alpha,
		Seed:          m.Seed,
		Workers:       m.Workers,
	}
}

func (p PipelineConfig) DetrendMethod() (series.DetrendMethod, error) {
	return series.ParseDetrendMethod(p.Method)
}

// String renders the config for logs with secrets masked.
func (c *Config) String() string {
	masked := *c
	masked.Fred.APIKey = mask(c.Fred.APIKey)
	masked.Snapshot.S3.AccessKeyID = mask(c.Snapshot.S3.AccessKeyID)
	masked.Snapshot.S3.SecretAccessKey = mask(c.Snapshot.S3.SecretAccessKey)
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return "config: " + strconv.Quote(err.Error())
	}
	return string(out)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
