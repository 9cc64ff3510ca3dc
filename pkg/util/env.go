package util

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// LoadEnv 按环境加载 .env 文件（.env.development / .env.production），
// 已存在的系统环境变量不会被覆盖
func LoadEnv(env string) error {
	filename := ".env." + env
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		filename = ".env"
	}

	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// GetEnv returns the environment variable value, or "" if unset.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvDefault returns the environment variable value, or def if unset.
func GetEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetIntEnv parses the environment variable as int64, 0 if unset or invalid.
func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

// GetBoolEnv parses the environment variable as bool ("1"/"true"/"yes").
func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

// GetFloatEnv parses the environment variable as float64, 0 if unset.
func GetFloatEnv(key string) float64 {
	return cast.ToFloat64(os.Getenv(key))
}

// GetDurationEnv parses the environment variable as a duration ("30s", "10m").
func GetDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
