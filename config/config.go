// Package config 加载 YAML 配置
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	Template       string            `yaml:"template"`
	Corpus         string            `yaml:"corpus"`
	SupervisorInfo string            `yaml:"supervisor_info"`
	OutputRoot     string            `yaml:"output_root"`
	BusinessName   string            `yaml:"business_name"`
	WrapWidth      int               `yaml:"wrap_width"`
	Log            LogConfig         `yaml:"log"`
	Render         RenderConfig      `yaml:"render"`
	Concurrency    ConcurrencyConfig `yaml:"concurrency"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// RenderConfig 截图浏览器配置
type RenderConfig struct {
	BrowserBin string        `yaml:"browser_bin"`
	Headless   *bool         `yaml:"headless"`
	Timeout    time.Duration `yaml:"timeout"`
}

// IsHeadless 未配置时默认无头模式
func (r RenderConfig) IsHeadless() bool {
	return r.Headless == nil || *r.Headless
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Template:       "ReportAssistant_bin/template.xlsx",
		Corpus:         "ReportAssistant_bin/remarks.txt",
		SupervisorInfo: "ReportAssistant_bin/supervisor_info.txt",
		OutputRoot:     ".",
		BusinessName:   "新航道万象城校区",
		WrapWidth:      25,
		Log:            LogConfig{Level: "info"},
		Render:         RenderConfig{Timeout: 30 * time.Second},
		Concurrency:    ConcurrencyConfig{Workers: 1},
	}
}

// Load 从指定路径加载配置；文件不存在时使用默认值，相对路径以配置文件所在目录为基准。
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg.resolve(filepath.Dir(path))
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Template == "" {
		c.Template = def.Template
	}
	if c.Corpus == "" {
		c.Corpus = def.Corpus
	}
	if c.SupervisorInfo == "" {
		c.SupervisorInfo = def.SupervisorInfo
	}
	if c.OutputRoot == "" {
		c.OutputRoot = def.OutputRoot
	}
	if c.BusinessName == "" {
		c.BusinessName = def.BusinessName
	}
	if c.WrapWidth <= 0 {
		c.WrapWidth = def.WrapWidth
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Render.Timeout <= 0 {
		c.Render.Timeout = def.Render.Timeout
	}
	if c.Concurrency.Workers <= 0 {
		c.Concurrency.Workers = def.Concurrency.Workers
	}
}

func (c *Config) resolve(base string) {
	for _, p := range []*string{&c.Template, &c.Corpus, &c.SupervisorInfo, &c.OutputRoot, &c.Log.File} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
