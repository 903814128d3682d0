package config

import (
	"time"

	pkgconfig "github.com/weiawesome/wes-io-chat/pkg/config"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Chat      ChatConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Issuer     string        `mapstructure:"issuer"`
	CookieName string        `mapstructure:"cookie_name"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	TimeZone        string `mapstructure:"timezone"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled     bool
	Address     string
	Password    string
	DB          int
	Prefix      string
	IdentityTTL time.Duration `mapstructure:"identity_ttl"`
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    string
	Topic      string
	Partitions int
}

type ChatConfig struct {
	// CascadeDelete removes a chat's messages together with the chat.
	CascadeDelete bool `mapstructure:"cascade_delete"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	pkgconfig.SetDefaults(v, map[string]interface{}{
		"server.host":                "0.0.0.0",
		"server.port":                8090,
		"server.shutdown_timeout":    "15s",
		"websocket.ping_interval":    "30s",
		"websocket.pong_wait":        "60s",
		"websocket.write_wait":       "10s",
		"websocket.max_message_size": 64 * 1024,
		"websocket.send_buffer":      256,
		"auth.jwt_secret":            "",
		"auth.issuer":                "",
		"auth.cookie_name":           "access_token",
		"auth.access_ttl":            "24h",
		"database.driver":            "sqlite",
		"database.host":              "localhost",
		"database.port":              5432,
		"database.user":              "postgres",
		"database.password":          "",
		"database.dbname":            "chat",
		"database.sslmode":           "disable",
		"database.timezone":          "UTC",
		"database.file_path":         "chat.db",
		"database.max_idle_conns":    10,
		"database.max_open_conns":    100,
		"database.conn_max_lifetime": 60,
		"redis.enabled":              false,
		"redis.address":              "localhost:6379",
		"redis.password":             "",
		"redis.db":                   0,
		"redis.prefix":               "chat",
		"redis.identity_ttl":         "5m",
		"kafka.enabled":              false,
		"kafka.brokers":              "localhost:9092",
		"kafka.topic":                "chat-events",
		"kafka.partitions":           8,
		"chat.cascade_delete":        true,
		"log.level":                  "info",
		"log.pretty":                 false,
	})

	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":         "PORT",
		"auth.jwt_secret":     "JWT_SECRET",
		"auth.issuer":         "JWT_ISSUER",
		"database.driver":     "DB_DRIVER",
		"database.host":       "DB_HOST",
		"database.port":       "DB_PORT",
		"database.user":       "DB_USER",
		"database.password":   "DB_PASSWORD",
		"database.dbname":     "DB_NAME",
		"database.file_path":  "DB_FILE_PATH",
		"redis.enabled":       "REDIS_ENABLED",
		"redis.address":       "REDIS_ADDRESS",
		"redis.password":      "REDIS_PASSWORD",
		"kafka.enabled":       "KAFKA_ENABLED",
		"kafka.brokers":       "KAFKA_BROKERS",
		"kafka.topic":         "KAFKA_TOPIC",
		"chat.cascade_delete": "CHAT_CASCADE_DELETE",
		"log.level":           "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Server.ShutdownTimeout = pkgconfig.Duration(v, "server.shutdown_timeout", 15*time.Second)
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.Auth.AccessTTL = pkgconfig.Duration(v, "auth.access_ttl", 24*time.Hour)
	cfg.Redis.IdentityTTL = pkgconfig.Duration(v, "redis.identity_ttl", 5*time.Minute)

	return &cfg, nil
}
