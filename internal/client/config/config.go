package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.SetDefault("server.page_size", 20)
	viper.SetDefault("server.timeout", 10)
	viper.SetDefault("realtime.event_buffer", 256)
	viper.SetDefault("realtime.backoff_min", 1)
	viper.SetDefault("realtime.backoff_max", 30)
	viper.SetDefault("realtime.ping_interval", 30)
	viper.SetDefault("meeting.store_path", "meetings.db")
	viper.SetDefault("meeting.ttl_hours", 2)

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}
