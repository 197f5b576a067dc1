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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDataset indicates a Dataset failed validation.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidGoldenQuery indicates a GoldenQuery failed validation.
	ErrInvalidGoldenQuery = errors.New("invalid golden query")

	// ErrEmptyDatasetName indicates the dataset Name field is empty.
	ErrEmptyDatasetName = errors.New("dataset name cannot be empty")

	// ErrNamespaceCollision indicates staging and production namespaces are equal.
	ErrNamespaceCollision = errors.New("staging and production namespaces must differ")

	// ErrEmptyURL indicates the document URL field is empty.
	ErrEmptyURL = errors.New("document URL cannot be empty")

	// ErrEmptyQuery indicates the golden query text is empty.
	ErrEmptyQuery = errors.New("query text cannot be empty")

	// ErrEmptyCitation indicates the expected citation substring is empty.
	ErrEmptyCitation = errors.New("expected citation cannot be empty")
)
