package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the binaries need, loaded once at startup from
// the environment (after godotenv has run in main).
type Config struct {
	Port string

	// DatabaseURL wins when set; otherwise the discrete DB_* parts are used.
	DatabaseURL string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      string
	DBName      string

	MailAPIURL   string
	MailAPIKey   string
	MailFromAddr string
	MailFromName string

	AMQPURL string

	MaxDailySends      int
	MaxHourlySends     int
	BusinessHoursStart int
	BusinessHoursEnd   int

	SweepInterval  time.Duration
	SendPause      time.Duration
	SessionTimeout time.Duration

	CampaignsFile   string
	ReportRecipient string

	Debug bool
}

// Load reads the configuration from the environment, applying defaults that
// match a local single-process deployment.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBName:      getEnv("DB_NAME", "outreach"),

		MailAPIURL:   getEnv("MAIL_API_URL", ""),
		MailAPIKey:   getEnv("MAIL_API_KEY", ""),
		MailFromAddr: getEnv("MAIL_FROM_ADDR", "outreach@havenpath.org"),
		MailFromName: getEnv("MAIL_FROM_NAME", "HavenPath Housing"),

		AMQPURL: getEnv("AMQP_URL", ""),

		MaxDailySends:      getIntEnv("MAX_DAILY_SENDS", 100),
		MaxHourlySends:     getIntEnv("MAX_HOURLY_SENDS", 20),
		BusinessHoursStart: getIntEnv("BUSINESS_HOURS_START", 9),
		BusinessHoursEnd:   getIntEnv("BUSINESS_HOURS_END", 17),

		SweepInterval:  getDurationEnv("SWEEP_INTERVAL", 10*time.Minute),
		SendPause:      getDurationEnv("SEND_PAUSE", 2*time.Second),
		SessionTimeout: getDurationEnv("SESSION_TIMEOUT", 30*time.Minute),

		CampaignsFile:   getEnv("CAMPAIGNS_FILE", ""),
		ReportRecipient: getEnv("REPORT_RECIPIENT", ""),

		Debug: getBoolEnv("DEBUG", false),
	}
}

// MailConfigured reports whether real transport credentials are present. When
// false the engine runs in simulation mode instead of failing startup.
func (c *Config) MailConfigured() bool {
	return c.MailAPIURL != "" && c.MailAPIKey != ""
}

// MailFrom renders the From header value.
func (c *Config) MailFrom() string {
	if c.MailFromName == "" {
		return c.MailFromAddr
	}
	return c.MailFromName + " <" + c.MailFromAddr + ">"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
