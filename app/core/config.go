package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const ENV_PREFIX = "TABLEHUB_"

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}
	conf.applyDefaults()

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.applyDefaults()
	return c
}

type CoreConfig struct {
	Addr          string              `toml:"addr"`
	NodeID        int64               `toml:"node_id"`
	Log           Log                 `toml:"log"`
	Postgres      PGConfig            `toml:"postgres"`
	Redis         RedisConfig         `toml:"redis"`
	ObjectStorage ObjectStorageDriver `toml:"object_storage"`
	Security      Security            `toml:"security"`
	Tables        TablesConfig        `toml:"tables"`
	Bootstrap     Bootstrap           `toml:"bootstrap"`
	Limit         Limit               `toml:"limit"`
}

func (c *CoreConfig) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":33033"
	}
	if c.NodeID == 0 {
		c.NodeID = 1
	}
	if c.Security.TokenTTLHours <= 0 {
		c.Security.TokenTTLHours = 24
	}
	if c.Bootstrap.AdminName == "" {
		c.Bootstrap.AdminName = "admin"
	}
	if c.Limit.LoginPerMinute <= 0 {
		c.Limit.LoginPerMinute = 10
	}
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv(ENV_PREFIX + "API_SERVICE_ADDRESS")
	c.NodeID = envInt64(ENV_PREFIX+"NODE_ID", 0)
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
	c.ObjectStorage.FromENV()
	c.Security.FromENV()
	c.Tables.FromENV()
	c.Bootstrap.FromENV()
	c.Limit.LoginPerMinute = int(envInt64(ENV_PREFIX+"LIMIT_LOGIN_PER_MINUTE", 0))
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string) *bool {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

type ObjectStorageDriver struct {
	Driver string    `toml:"driver"`
	Prefix string    `toml:"prefix"`
	S3     *S3Config `toml:"s3"`
}

func (o *ObjectStorageDriver) FromENV() {
	o.Driver = os.Getenv(ENV_PREFIX + "OBJECT_STORAGE_DRIVER")
	if o.Driver != "s3" {
		return
	}
	o.Prefix = os.Getenv(ENV_PREFIX + "OBJECT_STORAGE_PREFIX")
	o.S3 = &S3Config{
		Bucket:       os.Getenv(ENV_PREFIX + "S3_BUCKET"),
		Region:       os.Getenv(ENV_PREFIX + "S3_REGION"),
		Endpoint:     os.Getenv(ENV_PREFIX + "S3_ENDPOINT"),
		AccessKey:    os.Getenv(ENV_PREFIX + "S3_ACCESS_KEY"),
		SecretKey:    os.Getenv(ENV_PREFIX + "S3_SECRET_KEY"),
		UsePathStyle: os.Getenv(ENV_PREFIX+"S3_PATH_STYLE") == "true",
	}
}

type S3Config struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

type Security struct {
	JWTSecret     string `toml:"jwt_secret"`
	TokenTTLHours int    `toml:"token_ttl_hours"`
}

func (s *Security) FromENV() {
	s.JWTSecret = os.Getenv(ENV_PREFIX + "JWT_SECRET")
	s.TokenTTLHours = int(envInt64(ENV_PREFIX+"TOKEN_TTL_HOURS", 0))
}

func (s Security) TokenTTL() time.Duration {
	return time.Duration(s.TokenTTLHours) * time.Hour
}

type TablesConfig struct {
	// AutoRepair lets a table lookup create missing physical storage, default true.
	AutoRepair *bool `toml:"auto_repair"`
	// RepairCron enables the periodic repair pass, e.g. "@every 10m".
	RepairCron string `toml:"repair_cron"`
}

func (t *TablesConfig) FromENV() {
	t.AutoRepair = envBool(ENV_PREFIX + "AUTO_REPAIR")
	t.RepairCron = os.Getenv(ENV_PREFIX + "REPAIR_CRON")
}

func (t TablesConfig) AutoRepairEnabled() bool {
	return t.AutoRepair == nil || *t.AutoRepair
}

type Bootstrap struct {
	AdminName     string `toml:"admin_name"`
	AdminPassword string `toml:"admin_password"`
	SampleData    bool   `toml:"sample_data"`
}

func (b *Bootstrap) FromENV() {
	b.AdminName = os.Getenv(ENV_PREFIX + "ADMIN_NAME")
	b.AdminPassword = os.Getenv(ENV_PREFIX + "ADMIN_PASSWORD")
	b.SampleData = os.Getenv(ENV_PREFIX+"SAMPLE_DATA") == "true"
}

type Limit struct {
	LoginPerMinute int `toml:"login_per_minute"`
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv(ENV_PREFIX + "POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	// 单机模式配置, 为空时使用进程内缓存
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// 集群模式配置
	Cluster      bool     `toml:"cluster"`
	ClusterAddrs []string `toml:"cluster_addrs"`

	PoolSize     int `toml:"pool_size"`
	DialTimeout  int `toml:"dial_timeout"`  // 秒
	ReadTimeout  int `toml:"read_timeout"`  // 秒
	WriteTimeout int `toml:"write_timeout"` // 秒

	KeyPrefix string `toml:"key_prefix"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv(ENV_PREFIX + "REDIS_ADDR")
	r.Password = os.Getenv(ENV_PREFIX + "REDIS_PASSWORD")
	r.DB = int(envInt64(ENV_PREFIX+"REDIS_DB", 0))
	r.KeyPrefix = os.Getenv(ENV_PREFIX + "REDIS_KEY_PREFIX")
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != "" || (r.Cluster && len(r.ClusterAddrs) > 0)
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv(ENV_PREFIX + "LOG_LEVEL")
	l.Path = os.Getenv(ENV_PREFIX + "LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
