package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	sdk "github.com/matrixorigin/moi-go-sdk"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carpool/internal/carpool"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Members  []MemberConfig `yaml:"members"`
	Credits  CreditsConfig  `yaml:"credits"`
	Schedule ScheduleConfig `yaml:"schedule"`
	MOI      MOIConfig      `yaml:"moi"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig selects sqlite (Path) or mysql (Host...Name).
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`
}

type MemberConfig struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type CreditsConfig struct {
	Policy    string `yaml:"policy"`
	CacheSize int    `yaml:"cache_size"`
}

type ScheduleConfig struct {
	AdminOnlyEdits bool   `yaml:"admin_only_edits"`
	Timezone       string `yaml:"timezone"`
}

// MOIConfig enables the MatrixOne catalog mirror when APIKey is set.
type MOIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	CatalogID      int    `yaml:"catalog_id"`
	DatabaseID     int    `yaml:"database_id"`
	MembersTableID int    `yaml:"members_table_id"`
	EntriesTableID int    `yaml:"entries_table_id"`
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 5002, CORSOrigins: []string{"*"}},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: "data.db", Port: 3306, Name: "carpool"},
		Auth:     AuthConfig{JWTSecret: "carpool-dev-secret", TokenTTLHours: 7 * 24, AdminUser: "admin", AdminPassword: "change-me"},
		Members: []MemberConfig{
			{Key: "CA", Name: "CA"},
			{Key: "ER", Name: "ER"},
			{Key: "SJ", Name: "SJ"},
		},
		Credits: CreditsConfig{Policy: string(carpool.PolicyRiderWeighted), CacheSize: 64},
		MOI:     MOIConfig{BaseURL: "https://freetier-01.cn-hangzhou.cluster.cn-dev.matrixone.tech"},
	}
}

func Load(configFile string) *Config {
	c := Default()

	paths := []string{"etc/config-dev.yaml", "/etc/carpool/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.Database.Driver, "CARPOOL_DB_DRIVER")
	envOverride(&c.Database.Path, "CARPOOL_DB")
	envOverride(&c.Database.Host, "MYSQL_HOST")
	envOverride(&c.Database.User, "MYSQL_USER")
	envOverride(&c.Database.Password, "MYSQL_PASSWORD")
	envOverride(&c.Database.Name, "MYSQL_DATABASE")
	envOverride(&c.Auth.JWTSecret, "JWT_SECRET")
	envOverride(&c.Auth.AdminPassword, "CARPOOL_ADMIN_PASSWORD")
	envOverride(&c.MOI.BaseURL, "MOI_BASE_URL")
	envOverride(&c.MOI.APIKey, "MOI_API_KEY")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Schedule.Timezone, "CARPOOL_TZ")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "MYSQL_PORT")

	return c
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path required for sqlite")
		}
	case DriverMySQL:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host required for mysql")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if _, err := c.CreditPolicy(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret required")
	}
	seen := map[string]bool{}
	for _, m := range c.Members {
		if m.Key == "" {
			return fmt.Errorf("member with empty key")
		}
		if seen[m.Key] {
			return fmt.Errorf("duplicate member key %q", m.Key)
		}
		seen[m.Key] = true
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func (c *Config) CreditPolicy() (carpool.CreditPolicy, error) {
	return carpool.ParseCreditPolicy(c.Credits.Policy)
}

// Location is where "today" is decided; empty means the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return loc, nil
}

// SeedMembers returns the configured roster, all active.
func (c *Config) SeedMembers() []carpool.Member {
	out := make([]carpool.Member, 0, len(c.Members))
	for _, m := range c.Members {
		name := m.Name
		if name == "" {
			name = m.Key
		}
		out = append(out, carpool.Member{Key: strings.ToUpper(m.Key), Name: name, Active: true})
	}
	return out
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if c.Database.Driver == DriverMySQL {
		cfg := gomysql.NewConfig()
		cfg.User = c.Database.User
		cfg.Passwd = c.Database.Password
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
		cfg.DBName = c.Database.Name
		cfg.ParseTime = true
		cfg.Loc = time.UTC

		connector, err := gomysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("create connector: %w", err)
		}
		sqlDB := sql.OpenDB(connector)
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("ping db: %w", err)
		}
		return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), gcfg)
	}

	db, err := gorm.Open(sqlite.Open(c.SQLiteDSN()), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	if c.Database.Path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func (c *Config) SQLiteDSN() string {
	if c.Database.Path == ":memory:" {
		return ":memory:"
	}
	return c.Database.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (c *Config) NewRawClient() (*sdk.RawClient, error) {
	return sdk.NewRawClient(c.MOI.BaseURL, c.MOI.APIKey)
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
