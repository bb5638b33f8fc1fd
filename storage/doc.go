// Copyright 2025 Poiesic Systems
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


// Package storage provides the storage abstraction layer for litmine.
//
// This package defines repository interfaces that decouple storage implementation
// from the pipeline. The Document Store is the only stateful collaborator of the
// entity pipeline: it hands out pending documents and persists reconciled
// entity lists keyed by document ID.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to keep callers off BadgerDB specifics:
//
//	docs, checkpoints, backend, err := badger.NewMemoryRepositories()
//
// # Pending Documents
//
// A document is pending when it has a non-empty abstract and no entity list
// has been written yet. SaveEntities always clears the pending state, even for
// an empty entity list, so a document is processed at most once. Upserting a
// document whose abstract changed makes it pending again.
//
// # Indexes
//
// Implementations maintain three secondary indexes: PMID to ID, the pending
// set, and normalized entity word to document IDs. Entities whose word
// normalized to empty are stored but not indexed.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
