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


package core

import "fmt"

// ValidateDataset validates a Dataset according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Staging and Production namespaces must not be empty
//   - Staging and Production namespaces must differ
//
// Production is only ever written by the promoter, so a dataset whose
// namespaces collide would silently bypass the promotion gate.
func ValidateDataset(dataset *Dataset) error {
	if dataset == nil {
		return fmt.Errorf("%w: dataset is nil", ErrInvalidDataset)
	}

	if dataset.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrEmptyDatasetName)
	}

	if dataset.Staging == "" {
		return fmt.Errorf("%w: staging namespace cannot be empty", ErrInvalidDataset)
	}

	if dataset.Production == "" {
		return fmt.Errorf("%w: production namespace cannot be empty", ErrInvalidDataset)
	}

	if dataset.Staging == dataset.Production {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrNamespaceCollision)
	}

	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// NOT validated (populated by the pipeline):
//   - ContentHash (empty until the document text is hashed)
//   - Status (zero until the document enters the pipeline)
func ValidateDocument(document *Document) error {
	if document == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if document.Dataset == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDatasetName)
	}

	if document.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyURL)
	}

	return nil
}

// ValidateGoldenQuery validates a GoldenQuery according to domain rules.
func ValidateGoldenQuery(query *GoldenQuery) error {
	if query == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidGoldenQuery)
	}

	if query.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidGoldenQuery, ErrEmptyQuery)
	}

	if query.ExpectedCitation == "" {
		return fmt.Errorf("%w: %w", ErrInvalidGoldenQuery, ErrEmptyCitation)
	}

	return nil
}
