package model

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DBConfig is the relational ledger store connection config.
type DBConfig struct {
	User         string `toml:"user" mapstructure:"user" json:"user" validate:"required"`
	Password     string `toml:"password" mapstructure:"password" json:"password"`
	Host         string `toml:"host" mapstructure:"host" json:"host" validate:"required"`
	Port         int    `toml:"port" mapstructure:"port" json:"port" validate:"required"`
	Database     string `toml:"database" mapstructure:"database" json:"database" validate:"required"`
	MaxIdleConns int    `toml:"max_idle_conns" mapstructure:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns int    `toml:"max_open_conns" mapstructure:"max_open_conns" json:"max_open_conns"`
	LogLevel     string `toml:"log_level" mapstructure:"log_level" json:"log_level"`
}

// NewDB opens the MySQL ledger store and panics on failure, mirroring how
// the daemon treats a missing database as unrecoverable at boot.
func NewDB(cfg *DBConfig) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	logLevel := gormlogger.Warn
	if cfg.LogLevel == "info" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}
