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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidDetection indicates a RawDetection failed validation.
	ErrInvalidDetection = errors.New("invalid detection")

	// ErrEmptyPMID indicates the PMID field is empty.
	ErrEmptyPMID = errors.New("pmid cannot be empty")

	// ErrEmptyLabel indicates a detection has no label.
	ErrEmptyLabel = errors.New("label cannot be empty")

	// ErrEmptyText indicates a detection has no surface text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidSpan indicates a detection's offsets are negative or reversed.
	ErrInvalidSpan = errors.New("invalid span")

	// ErrInvalidScore indicates a score outside [0,1].
	ErrInvalidScore = errors.New("score must be within [0,1]")

	// ErrEmptySourceModel indicates a detection is not attributed to a model.
	ErrEmptySourceModel = errors.New("source model cannot be empty")
)
