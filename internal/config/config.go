package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/partnerclub/booking-service/internal/constants"
	"github.com/partnerclub/booking-service/internal/utils"
)

// Config holds all application configuration, including secrets.
type Config struct {
	AppName          string
	AppPort          string
	AppUrl           string
	DBUrl            string
	DocumentsDir     string
	TelegramBotToken string
	RSAPrivateKey    *rsa.PrivateKey
	RSAPublicKey     *rsa.PublicKey
	InitDataExpiry   time.Duration
	AccessTokenTTL   time.Duration
	AMQPUrl          string
	AMQPExchange     string
	SeedDevData      bool
}

const (
	DefaultAMQPExchange = "partnerclub.events"
	DefaultDocumentsDir = "./documents"
)

// LoadConfig reads the environment (optionally seeded from a local .env file)
// and returns a *Config. Missing required variables are fatal.
func LoadConfig(appName string) *Config {
	//----------------------------------------------------------------------
	// Load .env if present. Real deployments inject the environment.
	//----------------------------------------------------------------------
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file found, relying on process environment")
	}

	//----------------------------------------------------------------------
	// Required environment variables.
	//----------------------------------------------------------------------
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL env var is missing")
	}
	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		utils.Logger.Fatal("TELEGRAM_BOT_TOKEN env var is missing")
	}

	utils.Logger.Debugf("App can be accessed at: %s", appUrl)

	//----------------------------------------------------------------------
	// RSA key pair for access tokens. The private key is delivered as
	// base64-wrapped PEM; the public key is derived from it.
	//----------------------------------------------------------------------
	privateKeyBase64 := os.Getenv("RSA_PRIVATE_KEY_BASE64")
	if privateKeyBase64 == "" {
		utils.Logger.Fatal("RSA_PRIVATE_KEY_BASE64 env var is missing")
	}
	privateKeyPEM, err := base64.StdEncoding.DecodeString(privateKeyBase64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to decode base64 private key")
	}
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for private key")
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA private key")
	}

	//----------------------------------------------------------------------
	// Optional settings with defaults.
	//----------------------------------------------------------------------
	documentsDir := os.Getenv("DOCUMENTS_DIR")
	if documentsDir == "" {
		documentsDir = DefaultDocumentsDir
	}
	amqpExchange := os.Getenv("AMQP_EXCHANGE")
	if amqpExchange == "" {
		amqpExchange = DefaultAMQPExchange
	}

	return &Config{
		AppName:          appName,
		AppPort:          appPort,
		AppUrl:           appUrl,
		DBUrl:            dbUrl,
		DocumentsDir:     documentsDir,
		TelegramBotToken: botToken,
		RSAPrivateKey:    privateKey,
		RSAPublicKey:     &privateKey.PublicKey,
		InitDataExpiry:   constants.InitDataExpiry,
		AccessTokenTTL:   constants.AccessTokenTTL,
		AMQPUrl:          os.Getenv("AMQP_URL"),
		AMQPExchange:     amqpExchange,
		SeedDevData:      os.Getenv("SEED_DEV_DATA") == "true",
	}
}
