package config

import "time"

type Config struct {
	Service *ServiceConfig
	API     *APIConfig
	Push    *PushConfig
	Logger  *LoggerConfig
	Tracer  *TracerConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type PushConfig struct {
	URL          string
	AuthURL      string
	AuthTimeout  time.Duration
	Reconnect    bool
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type TracerConfig struct {
	Address string
}
