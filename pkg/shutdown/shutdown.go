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

package shutdown

import (
	"sync"
	"sync/atomic"

	"github.com/google/wire"
)

// ProviderSet provides the process wide shutdown manager.
var ProviderSet = wire.NewSet(NewManager)

// Manager tracks whether the process is draining. Health checks read it and
// Run waits on it.
type Manager struct {
	shuttingDown atomic.Bool
	once         sync.Once
	done         chan struct{}
}

func NewManager() *Manager {
	return &Manager{done: make(chan struct{})}
}

// Shutdown marks the process as draining. Calls after the first are no-ops.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.shuttingDown.Store(true)
		close(m.done)
	})
}

func (m *Manager) IsShuttingDown() bool {
	return m.shuttingDown.Load()
}

// Wait is closed by the first Shutdown.
func (m *Manager) Wait() <-chan struct{} {
	return m.done
}
