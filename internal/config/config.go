package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bot      BotConfig
	Gate     GateConfig
	Payment  PaymentConfig
	Sheets   SheetsConfig
	API      APIConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type BotConfig struct {
	Token      string
	Username   string
	UpdateMode string // "polling", "webhook", "auto"
	WebhookURL string

	// Fixed identities the payment flow coordinates between.
	AdminIDs     []int64
	ReviewerID   int64 // verifies receipts and decides approve/reject/override
	OperatorID   int64 // marks a finalized order as delivered
	OrderChannel int64
}

type GateConfig struct {
	CacheTTL       time.Duration // per-(user,channel) result cache
	JoinRequestTTL time.Duration // how long a pending join request counts as joined
}

type PaymentConfig struct {
	DeclaredAmount int64 // fixed promotional up-front sum, not the product price
	OverrideMin    int64
	OverrideMax    int64
	InvoiceTimeout time.Duration // native-invoice expiry
}

type SheetsConfig struct {
	SpreadsheetID string
	Worksheet     string
	AccessToken   string
}

type APIConfig struct {
	Key string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BOT_UPDATE_MODE", "auto")
	viper.SetDefault("GATE_CACHE_TTL", "5m")
	viper.SetDefault("GATE_JOIN_REQUEST_TTL", "24h")
	viper.SetDefault("PAYMENT_DECLARED_AMOUNT", 50000)
	viper.SetDefault("PAYMENT_OVERRIDE_MIN", 5000)
	viper.SetDefault("PAYMENT_OVERRIDE_MAX", 10000000)
	viper.SetDefault("PAYMENT_INVOICE_TIMEOUT", "5m")
	viper.SetDefault("SHEETS_WORKSHEET", "Orders")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Bot: BotConfig{
			Token:        viper.GetString("BOT_TOKEN"),
			Username:     viper.GetString("BOT_USERNAME"),
			UpdateMode:   viper.GetString("BOT_UPDATE_MODE"),
			WebhookURL:   viper.GetString("BOT_WEBHOOK_URL"),
			AdminIDs:     parseIDList(viper.GetString("BOT_ADMIN_IDS")),
			ReviewerID:   viper.GetInt64("BOT_REVIEWER_ID"),
			OperatorID:   viper.GetInt64("BOT_OPERATOR_ID"),
			OrderChannel: viper.GetInt64("BOT_ORDER_CHANNEL"),
		},
		Gate: GateConfig{
			CacheTTL:       parseDuration(viper.GetString("GATE_CACHE_TTL"), 5*time.Minute),
			JoinRequestTTL: parseDuration(viper.GetString("GATE_JOIN_REQUEST_TTL"), 24*time.Hour),
		},
		Payment: PaymentConfig{
			DeclaredAmount: viper.GetInt64("PAYMENT_DECLARED_AMOUNT"),
			OverrideMin:    viper.GetInt64("PAYMENT_OVERRIDE_MIN"),
			OverrideMax:    viper.GetInt64("PAYMENT_OVERRIDE_MAX"),
			InvoiceTimeout: parseDuration(viper.GetString("PAYMENT_INVOICE_TIMEOUT"), 5*time.Minute),
		},
		Sheets: SheetsConfig{
			SpreadsheetID: viper.GetString("SHEETS_SPREADSHEET_ID"),
			Worksheet:     viper.GetString("SHEETS_WORKSHEET"),
			AccessToken:   viper.GetString("SHEETS_ACCESS_TOKEN"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
	}

	if cfg.Bot.Token == "" {
		log.Println("WARNING: BOT_TOKEN is not set")
	}
	if cfg.Bot.ReviewerID == 0 {
		log.Println("WARNING: BOT_REVIEWER_ID is not set; manual payments cannot be reviewed")
	}

	return cfg, nil
}

// IsAdmin reports whether the given Telegram user ID is a configured admin.
func (b *BotConfig) IsAdmin(userID int64) bool {
	for _, id := range b.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}

func parseIDList(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
