package db

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type Config struct {
	// Driver is "postgres" (default) or "sqlite".
	Driver   string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (c Config) dsn() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(logg *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		zap.NewStdLog(logg.Desugar()),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "postgres":
		dialector = postgres.Open(cfg.dsn())
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file:officechat.db?_foreign_keys=on"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	serviceLog.Info("Database connected", "driver", dialector.Name())
	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
