// Copyright 2026 Calyptra Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import "github.com/calyptra/vecstage/storage"

// MemoryRepositories bundles in-memory repositories for testing.
type MemoryRepositories struct {
	Hashes      storage.HashRepository
	Documents   storage.DocumentRepository
	Evaluations storage.EvaluationRepository
	Locks       storage.LockRepository
	Backend     *Backend
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the backend when done.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	return &MemoryRepositories{
		Hashes:      NewHashRepository(backend),
		Documents:   NewDocumentRepository(backend),
		Evaluations: NewEvaluationRepository(backend),
		Locks:       NewLockRepository(backend),
		Backend:     backend,
	}, nil
}

// Close closes the underlying backend.
func (m *MemoryRepositories) Close() error {
	return m.Backend.Close()
}
