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


package ingestion

import (
	"context"

	"github.com/poiesic/litmine/core"
)

// processor is an internal interface for enriching processed documents.
// Implementations handle one enrichment such as embeddings or summaries.
type processor interface {
	// name identifies the processor in logs and checkpoints.
	name() string

	// wants reports whether doc still needs this enrichment.
	wants(doc *core.Document) bool

	// process enriches and persists the given documents and returns how
	// many were written.
	process(ctx context.Context, docs ...*core.Document) (int, error)

	// checkpoint saves the processor's progress.
	checkpoint(ctx context.Context) error
}
