package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Pg             Pg            `yaml:"pg"`
	JwtTTL         time.Duration `yaml:"jwt_ttl"`
	PublicBaseUrl  string        `yaml:"public_base_url"` // base address stored media paths are resolved against
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SecureCookies  bool          `yaml:"secure_cookies"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
}

type Pg struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Dbname string `yaml:"dbname"`
}

type Private struct {
	JwtKey     string `yaml:"jwt_key"`
	PgPassword string `yaml:"pg_password"`

	// OwnerEmail/OwnerPassword seed the owner account on startup.
	OwnerEmail    string `yaml:"owner_email"`
	OwnerPassword string `yaml:"owner_password"`
}

// New assembles a config from already-loaded sections. Mostly useful in tests;
// production code goes through MustLoad.
func New(public Public, private Private) *Config {
	return &Config{public, private}
}

func (s *Config) JwtKey() string {
	return s.private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func (s *Config) PgPassword() string {
	return s.private.PgPassword
}

func (s *Config) OwnerCredentials() (string, string) {
	return s.private.OwnerEmail, s.private.OwnerPassword
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}
