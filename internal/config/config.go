package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Blob storage backend: "s3" or "local"
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`

	// S3 / R2
	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket           string `mapstructure:"S3_BUCKET_NAME"`
	S3Endpoint         string `mapstructure:"S3_ENDPOINT"` // optional, for R2/MinIO
	S3PublicURL        string `mapstructure:"S3_PUBLIC_URL"`

	// Local disk backend
	LocalStorageDir string `mapstructure:"LOCAL_STORAGE_DIR"`

	// Upload protocol tuning
	PresignExpirySeconds  int   `mapstructure:"PRESIGN_EXPIRY_SECONDS"`
	MaxUploadBytes        int64 `mapstructure:"MAX_UPLOAD_BYTES"`
	DirectUploadThreshold int64 `mapstructure:"DIRECT_UPLOAD_THRESHOLD_BYTES"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Defaults mirror the production deployment
	viper.SetDefault("STORAGE_BACKEND", "s3")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET_NAME", "zodiac-app-apks")
	viper.SetDefault("LOCAL_STORAGE_DIR", "./uploads")
	viper.SetDefault("PRESIGN_EXPIRY_SECONDS", 900)
	viper.SetDefault("MAX_UPLOAD_BYTES", 200*1024*1024)
	viper.SetDefault("DIRECT_UPLOAD_THRESHOLD_BYTES", 50*1024*1024)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}
