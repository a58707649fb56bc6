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
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

const dataTablePrefix = "t_"

const (
	DriverSqlite = "sqlite"
	DriverMySQL  = "mysql"
)

// Database is the [database] section.
type Database struct {
	Driver       string       `mapstructure:"driver"`
	OutPut       bool         `mapstructure:"output"`
	MaxOpenConns int          `mapstructure:"maxOpenConns"`
	MaxIdleConns int          `mapstructure:"maxIdleConns"`
	MaxLifetime  int          `mapstructure:"maxLifetime"` // seconds
	MaxIdleTime  int          `mapstructure:"maxIdleTime"` // seconds
	Sqlite       SqliteConfig `mapstructure:"sqlite"`
	MySQL        MySQLConfig  `mapstructure:"mysql"`
}

type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

type MySQLConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	User     string   `mapstructure:"user"`
	Password string   `mapstructure:"password"`
	DBName   string   `mapstructure:"dbname"`
	Primary  []string `mapstructure:"primary"`
	Replicas []string `mapstructure:"replicas"`
}

func (d *Database) SetDefaults() {
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	if d.Driver == "" {
		d.Driver = DriverSqlite
	}
	if d.Sqlite.Path == "" {
		d.Sqlite.Path = "data/retry.db"
	}
	if d.MySQL.Port == 0 {
		d.MySQL.Port = 3306
	}
	if d.MaxOpenConns <= 0 {
		d.MaxOpenConns = 20
	}
	if d.MaxIdleConns <= 0 {
		d.MaxIdleConns = 5
	}
	// sqlite serializes writers, one connection avoids SQLITE_BUSY
	if d.Driver == DriverSqlite {
		d.MaxOpenConns = 1
		d.MaxIdleConns = 1
	}
}

// IDatabase gives repositories access to the gorm handle.
type IDatabase interface {
	Database() *gorm.DB
}

type databaseAdapter struct {
	manager Manager
}

func NewDatabaseAdapter(manager Manager) IDatabase {
	return &databaseAdapter{manager: manager}
}

func (d *databaseAdapter) Database() *gorm.DB {
	return d.manager.DB()
}

// FromGorm wraps an existing handle, used by tests.
func FromGorm(db *gorm.DB) IDatabase {
	return gormDatabase{db: db}
}

type gormDatabase struct {
	db *gorm.DB
}

func (g gormDatabase) Database() *gorm.DB { return g.db }

func buildMySQLDSN(user, password, host string, port int, dbName string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbName)
}

func GetConnMaxLifetime(seconds int) time.Duration {
	if seconds <= 0 {
		return time.Hour
	}
	return time.Duration(seconds) * time.Second
}

func GetConnMaxIdleTime(seconds int) time.Duration {
	if seconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(seconds) * time.Second
}
