package config

import (
	"fmt"
	"os"

	"github.com/opsxjacky/marketdata-loader/internal/data"
	"gopkg.in/yaml.v3"
)

// Config 配置文件结构
type Config struct {
	Sources []SourceConfig `yaml:"sources"`
	Output  OutputSection  `yaml:"output"`
	Runner  RunnerSection  `yaml:"runner"`
	Log     LogSection     `yaml:"log"`
}

// SourceConfig 单个数据源
type SourceConfig struct {
	Name            string `yaml:"name"`
	Kind            string `yaml:"kind"`
	Path            string `yaml:"path"`
	IndexColumn     string `yaml:"index_column"`
	TimestampFormat string `yaml:"timestamp_format"`
}

// OutputSection 输出配置
type OutputSection struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // csv | none
}

// RunnerSection 执行配置
type RunnerSection struct {
	Workers int `yaml:"workers"`
}

// LogSection 日志配置
type LogSection struct {
	Level string `yaml:"level"`
}

// LoadConfig 从文件加载配置
func LoadConfig(filepath string) (*Config, error) {
	raw, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(raw, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadAndValidate 加载并校验配置
func LoadAndValidate(filepath string) (*Config, error) {
	config, err := LoadConfig(filepath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("invalid config: no sources")
	}
	known := make(map[string]bool)
	for _, k := range data.SourceTypes() {
		known[k] = true
	}
	names := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("invalid config: sources[%d] has no name", i)
		}
		if names[s.Name] {
			return fmt.Errorf("invalid config: duplicate source name %q", s.Name)
		}
		names[s.Name] = true
		if !known[s.Kind] {
			return fmt.Errorf("invalid config: source %q has unknown kind %q", s.Name, s.Kind)
		}
		if s.Path == "" {
			return fmt.Errorf("invalid config: source %q has no path", s.Name)
		}
	}
	switch c.Output.Format {
	case "", "csv", "none":
	default:
		return fmt.Errorf("invalid config: unknown output format %q", c.Output.Format)
	}
	if c.Runner.Workers < 0 {
		return fmt.Errorf("invalid config: workers must be >= 0")
	}
	return nil
}

// ToOptions 转换为加载参数
func (s SourceConfig) ToOptions() data.Options {
	return data.Options{
		IndexColumn: s.IndexColumn,
		Format:      data.ParseTimestampFormat(s.TimestampFormat),
	}
}

// GetOutputPath 获取输出路径
func (c *Config) GetOutputPath() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	return "output"
}

// GetOutputFormat 获取输出格式
func (c *Config) GetOutputFormat() string {
	if c.Output.Format != "" {
		return c.Output.Format
	}
	return "csv"
}

// GetWorkers 获取并发数
func (c *Config) GetWorkers() int {
	if c.Runner.Workers > 0 {
		return c.Runner.Workers
	}
	return 1
}

// GetLogLevel 获取日志级别
func (c *Config) GetLogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	return "info"
}
