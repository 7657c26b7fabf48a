package config

import (
	"path/filepath"
	"sync"
)

type Config struct {
	Server      ServerConfig  `yaml:"server" mapstructure:"server"`
	Logging     LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Paths       PathsConfig   `yaml:"paths" mapstructure:"paths"`
	AutoArchive bool          `yaml:"auto_archive" mapstructure:"auto_archive"`
	path        string
}

type ServerConfig struct {
	Host      string `yaml:"host" mapstructure:"host"`
	Port      int    `yaml:"port" mapstructure:"port"`
	QueueSize int    `yaml:"queue_size" mapstructure:"queue_size"`
}

type LoggingConfig struct {
	LogPath           string `yaml:"log_path" mapstructure:"log_path"`
	EnableFileLogging bool   `yaml:"enable_file_logging" mapstructure:"enable_file_logging"`
}

type PathsConfig struct {
	DownloadPath      string `yaml:"download_path" mapstructure:"download_path"`
	DownloaderPath    string `yaml:"downloader_path" mapstructure:"downloader_path"`
	LocalDatabasePath string `yaml:"local_database_path" mapstructure:"local_database_path"`
}

var (
	instance     *Config
	instanceOnce sync.Once
)

func Instance() *Config {
	instanceOnce.Do(func() {
		instance = &Config{}
	})
	return instance
}

// Path of the directory containing the config file
func (c *Config) Dir() string { return filepath.Dir(c.path) }

// Absolute path of the config file
func (c *Config) Path() string { return c.path }
