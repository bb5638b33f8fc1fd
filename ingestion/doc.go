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


// Package ingestion drives documents from the store through entity
// extraction and enrichment.
//
// Pipeline.Run selects every pending document (non-empty abstract, no
// entities written yet) and processes each one wholly inside a single
// worker: the abstract is segmented, every configured extractor runs over
// every segment in order, detections from the second segment are shifted
// by the character length of the first, the combined detections are
// reconciled, and the segments and reconciled entities are persisted.
//
// Documents are independent, so they are spread across an ants worker pool.
// Extractors for one document always run sequentially in configuration
// order, since the order detections reach the reconciler decides merges.
//
// Failure handling:
//   - an extractor error on a segment is logged and counts as zero detections
//   - a tokenizer error skips the document and leaves it pending
//   - a persistence error is returned from Run, joined with the others
//
// Pipeline.Embed and Pipeline.Summarize enrich processed documents with
// vectors and summaries. Importer loads documents from a bibliographic
// Source into the store.
package ingestion
