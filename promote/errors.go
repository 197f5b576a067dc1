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


package promote

import "errors"

var (
	// ErrStoreRequired is returned when no vector store is provided.
	ErrStoreRequired = errors.New("vector store is required")

	// ErrLockRepositoryRequired is returned when no lock repository is
	// provided.
	ErrLockRepositoryRequired = errors.New("lock repository is required")

	// ErrEvaluationRepositoryRequired is returned when no evaluation
	// repository is provided.
	ErrEvaluationRepositoryRequired = errors.New("evaluation repository is required")

	// ErrNotEvaluated is returned when promotion is requested for a dataset
	// that has never been evaluated.
	ErrNotEvaluated = errors.New("dataset has no evaluation result")

	// ErrEvaluationFailed is returned when the latest evaluation for the
	// dataset did not pass.
	ErrEvaluationFailed = errors.New("latest evaluation did not pass")

	// ErrPromotionInProgress is returned when another promotion already
	// holds the dataset's lock.
	ErrPromotionInProgress = errors.New("promotion already in progress")
)
