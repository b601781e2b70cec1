package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Meeting  MeetingConfig  `mapstructure:"meeting"`
	Logstash LogstashConfig `mapstructure:"logstash"`
}

// ServerConfig REST 接口配置
type ServerConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
	Timeout  int    `mapstructure:"timeout"` // 秒
}

// AuthConfig 访问凭据配置
type AuthConfig struct {
	Token  string `mapstructure:"token"`
	UserID string `mapstructure:"user_id"` // token 无法解析时的兜底用户标识
}

// RealtimeConfig 实时通道配置
type RealtimeConfig struct {
	URL          string `mapstructure:"url"`
	EventBuffer  int    `mapstructure:"event_buffer"`
	BackoffMin   int    `mapstructure:"backoff_min"`   // 秒
	BackoffMax   int    `mapstructure:"backoff_max"`   // 秒
	PingInterval int    `mapstructure:"ping_interval"` // 秒
}

// MeetingConfig 会议配置
type MeetingConfig struct {
	StorePath string `mapstructure:"store_path"`
	TTLHours  int    `mapstructure:"ttl_hours"`
	RoomBase  string `mapstructure:"room_base"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
}
