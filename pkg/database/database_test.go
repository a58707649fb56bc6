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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaultsForcesSingleSqliteConnection(t *testing.T) {
	d := Database{MaxOpenConns: 50}
	d.SetDefaults()
	assert.Equal(t, DriverSqlite, d.Driver)
	assert.Equal(t, 1, d.MaxOpenConns)
	assert.Equal(t, "data/retry.db", d.Sqlite.Path)

	m := Database{Driver: " MySQL "}
	m.SetDefaults()
	assert.Equal(t, DriverMySQL, m.Driver)
	assert.Equal(t, 20, m.MaxOpenConns)
	assert.Equal(t, 3306, m.MySQL.Port)
}

func TestSqliteManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "retry.db")
	m, err := NewManager(Database{Driver: DriverSqlite, Sqlite: SqliteConfig{Path: path}})
	require.NoError(t, err)
	defer m.Close()

	db := NewDatabaseAdapter(m).Database()
	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	assert.FileExists(t, path)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := NewManager(Database{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported")
}

func TestMySQLRequiresHost(t *testing.T) {
	_, err := NewManager(Database{Driver: DriverMySQL})
	assert.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn := buildMySQLDSN("root", "secret", "db", 3306, "retry")
	assert.Equal(t, "root:secret@tcp(db:3306)/retry?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
