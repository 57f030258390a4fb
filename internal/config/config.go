package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config содержит конфигурацию приложения
type Config struct {
	BotToken   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// ID сотрудников (доступ к панели и отчётам)
	StaffIDs []int64

	// Токен HTTP API сотрудников, пусто — без авторизации
	APIToken string

	// Сервис распознавания позы (MediaPipe)
	PoseURL     string
	PoseTimeout time.Duration

	// Google Sheets
	GoogleCredentialsPath string
	GoogleDriveFolderID   string

	// RabbitMQ, пусто — события не публикуются
	AMQPURL   string
	AMQPQueue string

	// Настройки из YAML
	Tuning     Tuning
	TuningPath string
}

// Tuning — несекретные параметры из config.yaml
type Tuning struct {
	LogLevel          string `yaml:"log_level"`
	HTTPAddr          string `yaml:"http_addr"`
	ExtractorMode     string `yaml:"extractor_mode"`
	ReminderCron      string `yaml:"reminder_cron"`
	ReminderAfterDays int    `yaml:"reminder_after_days"`
	ExportDir         string `yaml:"export_dir"`
}

// DefaultTuning возвращает значения по умолчанию
func DefaultTuning() Tuning {
	return Tuning{
		LogLevel:          "info",
		HTTPAddr:          ":8080",
		ExtractorMode:     "calibrated",
		ReminderCron:      "0 0 9 * * *",
		ReminderAfterDays: 30,
		ExportDir:         "exports",
	}
}

// Load загружает конфигурацию из переменных окружения, .env и config.yaml
func Load() (*Config, error) {
	env, err := loadEnvFile(".env")
	if err != nil {
		env = make(map[string]string)
	}

	getEnv := func(key, defaultValue string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		if value, ok := env[key]; ok && value != "" {
			return value
		}
		return defaultValue
	}

	tuningPath := getEnv("CONFIG_FILE", "config.yaml")
	tuning, err := LoadTuning(tuningPath)
	if err != nil {
		return nil, err
	}

	poseTimeout, err := time.ParseDuration(getEnv("POSE_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("POSE_TIMEOUT: %w", err)
	}

	staff, err := parseIDs(getEnv("STAFF_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("STAFF_IDS: %w", err)
	}

	cfg := &Config{
		BotToken:   getEnv("BOT_TOKEN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "grimaldi"),

		StaffIDs: staff,
		APIToken: getEnv("API_TOKEN", ""),

		PoseURL:     getEnv("POSE_URL", "http://localhost:8500"),
		PoseTimeout: poseTimeout,

		GoogleCredentialsPath: getEnv("GOOGLE_CREDENTIALS_PATH", "google-credentials.json"),
		GoogleDriveFolderID:   getEnv("GOOGLE_DRIVE_FOLDER_ID", ""),

		AMQPURL:   getEnv("AMQP_URL", ""),
		AMQPQueue: getEnv("AMQP_QUEUE", "analysis.completed"),

		Tuning:     tuning,
		TuningPath: tuningPath,
	}

	return cfg, nil
}

// RequireBotToken проверяет токен, нужен только боту
func (c *Config) RequireBotToken() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN не задан")
	}
	return nil
}

// IsStaff проверяет, является ли пользователь сотрудником
func (c *Config) IsStaff(telegramID int64) bool {
	for _, id := range c.StaffIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// DSN возвращает строку подключения к базе данных
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// LoadTuning читает YAML поверх значений по умолчанию.
// Отсутствие файла не ошибка.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}
	if t.ReminderAfterDays <= 0 {
		t.ReminderAfterDays = DefaultTuning().ReminderAfterDays
	}
	return t, nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// loadEnvFile читает .env файл
func loadEnvFile(filename string) (map[string]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		env[key] = value
	}

	return env, scanner.Err()
}
