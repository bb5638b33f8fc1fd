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


// Package reconcile merges entity detections produced by several models over
// one document into a deduplicated, scored entity list.
//
// # Algorithm
//
// Detections scoring below the threshold are discarded. Survivors are
// partitioned by (label, lowercased surface text); detections with different
// labels or different text never merge, even when their spans overlap.
//
// Within a partition, detections are folded into occurrences in input order.
// A detection joins the first existing occurrence whose start and end are
// both within tolerance characters of its own; otherwise it starts a new
// occurrence. An occurrence keeps the span of the detection that created it.
//
// This is incremental single-linkage and is order dependent: a detection
// within tolerance of two occurrences that are not within tolerance of each
// other joins whichever was created first. Callers that need reproducible
// output must feed detections in a stable order (model order, then segment
// order, then model output order).
//
// # Scores
//
// An occurrence's combined score is the mean of the scores folded into it.
// An entity's overall score is the unweighted mean of its occurrences'
// combined scores.
//
// # Words
//
// The emitted Word is the display normalization of the partition's text (see
// NormalizeEntity). It may be empty; such entities are still emitted.
package reconcile
