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

package repo

import (
	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/pkg/database"
	"github.com/google/wire"
	"gorm.io/gorm"
)

// ProviderSet provides the repositories.
var ProviderSet = wire.NewSet(
	ProvideRepositories,
)

// Repositories groups every repository of the engine.
type Repositories struct {
	RetryRun IRetryRunRepository
}

func NewRepositories(db database.IDatabase) *Repositories {
	return &Repositories{
		RetryRun: NewRetryRunRepo(db),
	}
}

// ProvideRepositories migrates the schema and builds the repositories.
func ProvideRepositories(db database.IDatabase) (*Repositories, error) {
	if err := AutoMigrate(db.Database()); err != nil {
		return nil, err
	}
	return NewRepositories(db), nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.RetryRun{})
}

// Count counts rows of tx without consuming its statement.
func Count(tx *gorm.DB) (int64, error) {
	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
