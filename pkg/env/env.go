package env

import (
	"os"

	"github.com/joho/godotenv"
)

var env map[string]string

// Load reads the .env file if one is present. OS variables still win
// for deployments that configure through the environment directly.
func Load() {
	for _, envFile := range []string{".env", "../.env"} {
		if parsed, err := godotenv.Read(envFile); err == nil {
			env = parsed
			return
		}
	}
}

func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val, ok := env[key]; ok {
		return val
	}
	return def
}
