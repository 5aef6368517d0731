package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Render    RenderConfig
	Storage   StorageConfig
	Upload    UploadConfig
	Blob      BlobConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// RenderConfig points at the external render backend. Timeout is in seconds
// and bounds every outbound call; an exceeded timeout is treated the same as
// an unreachable backend.
type RenderConfig struct {
	BaseURL string
	Timeout int
}

type StorageConfig struct {
	AudioDir string
	MusicDir string
}

type UploadConfig struct {
	MaxAudioMB int64
	MaxVideoMB int64
}

type BlobConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	UploadPerHour   int
	VoiceoverPerMin int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("BLOB_ACCOUNT_ID")
	readSecret("BLOB_ACCESS_KEY_ID")
	readSecret("BLOB_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("render.base_url", "RENDER_BACKEND_URL")
	_ = viper.BindEnv("render.timeout", "RENDER_BACKEND_TIMEOUT")
	_ = viper.BindEnv("storage.audio_dir", "AUDIO_UPLOAD_DIR")
	_ = viper.BindEnv("storage.music_dir", "MUSIC_ASSET_DIR")
	_ = viper.BindEnv("upload.max_audio_mb", "MAX_AUDIO_UPLOAD_MB")
	_ = viper.BindEnv("upload.max_video_mb", "MAX_VIDEO_UPLOAD_MB")
	_ = viper.BindEnv("blob.account_id", "BLOB_ACCOUNT_ID")
	_ = viper.BindEnv("blob.access_key_id", "BLOB_ACCESS_KEY_ID")
	_ = viper.BindEnv("blob.secret_access_key", "BLOB_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("blob.bucket_name", "BLOB_BUCKET_NAME")
	_ = viper.BindEnv("blob.public_url", "BLOB_PUBLIC_URL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("ratelimit.upload_per_hour", "RATELIMIT_UPLOAD_PER_HOUR")
	_ = viper.BindEnv("ratelimit.voiceover_per_min", "RATELIMIT_VOICEOVER_PER_MIN")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("render.base_url", "http://localhost:8001")
	viper.SetDefault("render.timeout", 10)
	viper.SetDefault("storage.audio_dir", "uploads/audio")
	viper.SetDefault("storage.music_dir", "backend/assets/music")
	viper.SetDefault("upload.max_audio_mb", 100)
	viper.SetDefault("upload.max_video_mb", 500)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.upload_per_hour", 50)
	viper.SetDefault("ratelimit.voiceover_per_min", 20)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Render: RenderConfig{
			BaseURL: viper.GetString("render.base_url"),
			Timeout: viper.GetInt("render.timeout"),
		},
		Storage: StorageConfig{
			AudioDir: viper.GetString("storage.audio_dir"),
			MusicDir: viper.GetString("storage.music_dir"),
		},
		Upload: UploadConfig{
			MaxAudioMB: viper.GetInt64("upload.max_audio_mb"),
			MaxVideoMB: viper.GetInt64("upload.max_video_mb"),
		},
		Blob: BlobConfig{
			AccountID:       viper.GetString("blob.account_id"),
			AccessKeyID:     viper.GetString("blob.access_key_id"),
			SecretAccessKey: viper.GetString("blob.secret_access_key"),
			BucketName:      viper.GetString("blob.bucket_name"),
			PublicURL:       viper.GetString("blob.public_url"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			UploadPerHour:   viper.GetInt("ratelimit.upload_per_hour"),
			VoiceoverPerMin: viper.GetInt("ratelimit.voiceover_per_min"),
		},
	}

	return cfg, nil
}
