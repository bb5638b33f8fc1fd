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


package core

import (
	"fmt"
	"math"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - PMID must not be empty
//
// NOT validated (populated by processors):
//   - Abstract (documents without one are stored but never processed)
//   - Entities, Vector, Summary
//   - ID (derived from PMID on insert)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.PMID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyPMID)
	}

	return nil
}

// ValidateDetection validates a RawDetection produced by an extractor.
//
// Validation rules:
//   - Label, Text and SourceModel must not be empty
//   - 0 <= Start <= End
//   - Score must be a finite number in [0,1]
func ValidateDetection(det *RawDetection) error {
	if det == nil {
		return fmt.Errorf("%w: detection is nil", ErrInvalidDetection)
	}

	if det.Label == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDetection, ErrEmptyLabel)
	}

	if det.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDetection, ErrEmptyText)
	}

	if det.Start < 0 || det.End < det.Start {
		return fmt.Errorf("%w: %w: [%d,%d)", ErrInvalidDetection, ErrInvalidSpan, det.Start, det.End)
	}

	if math.IsNaN(det.Score) || det.Score < 0 || det.Score > 1 {
		return fmt.Errorf("%w: %w: %v", ErrInvalidDetection, ErrInvalidScore, det.Score)
	}

	if det.SourceModel == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDetection, ErrEmptySourceModel)
	}

	return nil
}
