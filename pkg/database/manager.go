// Copyright 2026 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// Manager owns the database connection of the daemon.
type Manager interface {
	DB() *gorm.DB
	Close() error
}

type managerImpl struct {
	db *gorm.DB
}

func (m *managerImpl) DB() *gorm.DB {
	return m.db
}

func (m *managerImpl) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", m.db.Dialector.Name(), err)
	}
	return nil
}

// NewManager opens the configured driver.
func NewManager(cfg Database) (Manager, error) {
	cfg.SetDefaults()
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverSqlite:
		db, err = newSqliteConnection(cfg)
	case DriverMySQL:
		db, err = newMySQLConnection(cfg.MySQL, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", cfg.Driver, err)
	}
	logger.Infow("database connected", "driver", cfg.Driver)
	return &managerImpl{db: db}, nil
}

func gormConfig(cfg Database) *gorm.Config {
	logConfig := gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Silent,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	}
	var l gormlogger.Interface
	if cfg.OutPut {
		l = NewGormLoggerAdapter(logConfig, gormlogger.Info)
	} else {
		l = NewGormLoggerAdapter(logConfig, gormlogger.Warn)
	}
	return &gorm.Config{
		Logger: l,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dataTablePrefix,
			SingularTable: true,
		},
	}
}

// newSqliteConnection accepts a plain file path or a full "file:" DSN.
func newSqliteConnection(cfg Database) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.Sqlite.Path)
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		dsn = "file:" + dsn + "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

// newMySQLConnection opens MySQL and registers dbresolver when primaries or
// replicas are configured.
func newMySQLConnection(mysqlCfg MySQLConfig, commonCfg Database) (*gorm.DB, error) {
	if mysqlCfg.Host == "" && len(mysqlCfg.Primary) == 0 {
		return nil, errors.New("mysql host or primary dsn is required")
	}
	defaultDSN := buildMySQLDSN(mysqlCfg.User, mysqlCfg.Password, mysqlCfg.Host, mysqlCfg.Port, mysqlCfg.DBName)
	if mysqlCfg.Host == "" {
		defaultDSN = mysqlCfg.Primary[0]
	}

	db, err := gorm.Open(mysql.Open(defaultDSN), gormConfig(commonCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if len(mysqlCfg.Primary) > 0 || len(mysqlCfg.Replicas) > 0 {
		resolverConfig := dbresolver.Config{
			Sources:           buildDialectors(mysqlCfg.Primary),
			Replicas:          buildDialectors(mysqlCfg.Replicas),
			TraceResolverMode: commonCfg.OutPut,
		}
		err = db.Use(dbresolver.Register(resolverConfig).
			SetConnMaxIdleTime(GetConnMaxIdleTime(commonCfg.MaxIdleTime)).
			SetConnMaxLifetime(GetConnMaxLifetime(commonCfg.MaxLifetime)).
			SetMaxIdleConns(commonCfg.MaxIdleConns).
			SetMaxOpenConns(commonCfg.MaxOpenConns))
		if err != nil {
			return nil, fmt.Errorf("failed to register DBResolver plugin: %w", err)
		}
		logger.Infow("mysql read-write separation enabled", "primary", len(mysqlCfg.Primary), "replicas", len(mysqlCfg.Replicas))
	}

	if err := configurePool(db, commonCfg); err != nil {
		return nil, err
	}
	return db, nil
}

func configurePool(db *gorm.DB, cfg Database) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime))
	sqlDB.SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime))
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func buildDialectors(dsns []string) []gorm.Dialector {
	if len(dsns) == 0 {
		return nil
	}
	out := make([]gorm.Dialector, 0, len(dsns))
	for _, dsn := range dsns {
		out = append(out, mysql.Open(dsn))
	}
	return out
}
