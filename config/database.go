package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yatube/yatube/models"
)

// Connection pool limits for the shared handle.
const (
	poolIdle        = 5
	poolOpen        = 20
	poolMaxLifetime = 30 * time.Minute
	poolMaxIdleTime = 10 * time.Minute
)

var shared *gorm.DB

var dialectors = map[string]func(string) gorm.Dialector{
	"":         mysql.Open,
	"mysql":    mysql.Open,
	"postgres": postgres.Open,
	"sqlite":   sqlite.Open,
}

// sqlLogLevels maps the application log level onto gorm's. Only debug prints statements.
var sqlLogLevels = map[string]gormlogger.LogLevel{
	"debug":  gormlogger.Info,
	"error":  gormlogger.Error,
	"silent": gormlogger.Silent,
}

// InitDatabase opens the configured database once, tunes its pool and migrates the blog models.
func InitDatabase() *gorm.DB {
	if shared != nil {
		return shared
	}
	c := Get()
	conn, err := Open(c.DBDriver, DSN(c), c.LogLevel)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := tunePool(conn); err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := Migrate(conn); err != nil {
		log.Fatalf("database: %v", err)
	}
	shared = conn
	return shared
}

func tunePool(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(poolIdle)
	sqlDB.SetMaxOpenConns(poolOpen)
	sqlDB.SetConnMaxLifetime(poolMaxLifetime)
	sqlDB.SetConnMaxIdleTime(poolMaxIdleTime)
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// DSN builds the driver specific connection string unless DatabaseURI is set.
func DSN(c AppConfig) string {
	if c.DatabaseURI != "" {
		return c.DatabaseURI
	}
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	case "sqlite":
		return c.DBName + ".sqlite3"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Open connects gorm to the named driver: mysql, postgres or sqlite.
func Open(driver, dsn, logLevel string) (*gorm.DB, error) {
	open, ok := dialectors[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	level, ok := sqlLogLevels[logLevel]
	if !ok {
		level = gormlogger.Warn
	}
	sqlLog := gormlogger.New(log.New(os.Stdout, "[sql] ", log.LstdFlags), gormlogger.Config{
		SlowThreshold:             2 * time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
	conn, err := gorm.Open(open(dsn), &gorm.Config{Logger: sqlLog})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return conn, nil
}

// Migrate creates or extends the tables of every blog model.
func Migrate(conn *gorm.DB) error {
	for _, model := range models.All() {
		if err := conn.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}
