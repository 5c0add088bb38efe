// Package config carga la configuración del servicio desde .env + variables de entorno.
package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	Host string
	Port string

	DB      DBConfig
	Log     LogConfig
	Auth    AuthConfig
	Uploads UploadsConfig
	Admin   AdminConfig

	CORSOrigins []string
}

type DBConfig struct {
	Driver string // memory | postgres | mysql | sqlite
	DSN    string
}

type LogConfig struct {
	Level  string
	Format string
	App    string
}

type AuthConfig struct {
	SessionTTL   time.Duration
	DevHeaders   bool
	RemoteURL    string
	RemoteAPIKey string
}

type UploadsConfig struct {
	Driver string // fs | s3 | gridfs
	Dir    string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
	S3AccessKey string
	S3SecretKey string

	MongoURI     string
	MongoDB      string
	GridFSBucket string
}

type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Load lee .env (si existe) y luego el entorno. Las variables ya definidas en el
// entorno ganan sobre el archivo.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup arma la config a partir de una función de lookup (os.LookupEnv en prod).
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Host: get("HOST", "0.0.0.0"),
		Port: get("PORT", "3000"),
		Log: LogConfig{
			Level:  get("LOG_LEVEL", "info"),
			Format: get("LOG_FORMAT", "text"),
			App:    get("APP_NAME", "animal-shelter"),
		},
		Uploads: UploadsConfig{
			Driver:       strings.ToLower(get("UPLOAD_DRIVER", "fs")),
			Dir:          get("UPLOAD_DIR", "uploads"),
			S3Bucket:     get("S3_BUCKET", ""),
			S3Region:     get("S3_REGION", "us-east-1"),
			S3Endpoint:   get("S3_ENDPOINT", ""),
			S3PathStyle:  parseBool(get("S3_PATH_STYLE", "false")),
			S3AccessKey:  get("S3_ACCESS_KEY_ID", ""),
			S3SecretKey:  get("S3_SECRET_ACCESS_KEY", ""),
			MongoURI:     get("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:      get("MONGO_DB", "sistema_animal"),
			GridFSBucket: get("GRIDFS_BUCKET", "imagenes"),
		},
		Admin: AdminConfig{
			Email:    get("ADMIN_EMAIL", ""),
			Password: get("ADMIN_PASSWORD", ""),
			Name:     get("ADMIN_NAME", "Administrador"),
		},
	}

	ttl, err := time.ParseDuration(get("SESSION_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return Config{}, errors.New("SESSION_TTL must be a positive duration")
	}
	cfg.Auth = AuthConfig{
		SessionTTL:   ttl,
		DevHeaders:   parseBool(get("AUTH_DEV_HEADERS", "false")),
		RemoteURL:    get("AUTH_REMOTE_URL", ""),
		RemoteAPIKey: get("AUTH_REMOTE_API_KEY", ""),
	}

	if origins := get("CORS_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	cfg.DB.Driver = strings.ToLower(get("DB_DRIVER", ""))
	cfg.DB.DSN = get("DB_DSN", "")

	// Compatibilidad con el despliegue original (DB_HOST/DB_USER/... sobre MySQL).
	if cfg.DB.DSN == "" && get("DB_HOST", "") != "" {
		if cfg.DB.Driver == "" {
			cfg.DB.Driver = "mysql"
		}
		if cfg.DB.Driver == "mysql" {
			cfg.DB.DSN = mysqlDSN(get("DB_HOST", ""), get("DB_PORT", "3306"), get("DB_USER", "root"),
				get("DB_PASSWORD", ""), get("DB_NAME", "sistema_animal"))
		}
	}
	if cfg.DB.Driver == "" {
		cfg.DB.Driver = "memory"
	}

	switch cfg.DB.Driver {
	case "memory":
	case "postgres", "mysql", "sqlite":
		if cfg.DB.DSN == "" {
			return Config{}, errors.New("DB_DSN is required for driver " + cfg.DB.Driver)
		}
	default:
		return Config{}, errors.New("unknown DB_DRIVER " + cfg.DB.Driver)
	}

	switch cfg.Uploads.Driver {
	case "fs", "gridfs":
	case "s3":
		if cfg.Uploads.S3Bucket == "" {
			return Config{}, errors.New("S3_BUCKET is required for UPLOAD_DRIVER=s3")
		}
	default:
		return Config{}, errors.New("unknown UPLOAD_DRIVER " + cfg.Uploads.Driver)
	}

	return cfg, nil
}

func mysqlDSN(host, port, user, pass, name string) string {
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, port)
	c.User = user
	c.Passwd = pass
	c.DBName = name
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN()
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
