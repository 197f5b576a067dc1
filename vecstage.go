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


package vecstage

import (
	"log/slog"

	"github.com/calyptra/vecstage/ai"
	"github.com/calyptra/vecstage/ai/openai"
	"github.com/calyptra/vecstage/chunk"
	"github.com/calyptra/vecstage/evaluate"
	"github.com/calyptra/vecstage/ingest"
	"github.com/calyptra/vecstage/promote"
	"github.com/calyptra/vecstage/storage"
	"github.com/calyptra/vecstage/storage/badger"
	"github.com/calyptra/vecstage/vector"
	"github.com/calyptra/vecstage/vector/memory"
)

// Service owns the local state store, the vector store client and the
// embedder, and hands out the pipeline stages wired against them.
type Service struct {
	backend  *badger.Backend
	hashRepo storage.HashRepository
	docRepo  storage.DocumentRepository
	evalRepo storage.EvaluationRepository
	lockRepo storage.LockRepository
	store    vector.Store
	embedder ai.Embedder
	chunking chunk.Config
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
	store    vector.Store
	embedder ai.Embedder
	chunking chunk.Config
}

// WithAIConfig sets the embedding endpoint configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithVectorStore sets the vector store.
// Default is the in-memory store.
func WithVectorStore(store vector.Store) ServiceOption {
	return func(o *serviceOptions) {
		o.store = store
	}
}

// WithEmbedder sets the embedder directly, bypassing the AI config.
func WithEmbedder(embedder ai.Embedder) ServiceOption {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// WithChunking sets the chunk assembly token bounds.
func WithChunking(config chunk.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.chunking = config
	}
}

func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	// Apply options
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
		chunking: chunk.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	hashRepo := badger.NewHashRepository(backend)
	docRepo := badger.NewDocumentRepository(backend)
	evalRepo := badger.NewEvaluationRepository(backend)
	lockRepo := badger.NewLockRepository(backend)

	store := options.store
	if store == nil {
		store = memory.NewStore()
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Service{
		backend:  backend,
		hashRepo: hashRepo,
		docRepo:  docRepo,
		evalRepo: evalRepo,
		lockRepo: lockRepo,
		store:    store,
		embedder: embedder,
		chunking: options.chunking,
		logger:   slog.Default(),
	}, nil
}

func (s *Service) Close() error {
	// Repositories share the backend; closing it closes them all.
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Service) HashRepository() storage.HashRepository {
	return s.hashRepo
}

func (s *Service) DocumentRepository() storage.DocumentRepository {
	return s.docRepo
}

func (s *Service) EvaluationRepository() storage.EvaluationRepository {
	return s.evalRepo
}

func (s *Service) LockRepository() storage.LockRepository {
	return s.lockRepo
}

func (s *Service) VectorStore() vector.Store {
	return s.store
}

func (s *Service) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	assembler, err := chunk.NewAssembler(s.chunking)
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(s.store, s.hashRepo, s.docRepo, s.embedder, assembler, opts...)
}

func (s *Service) NewEvaluator(opts ...evaluate.Option) (*evaluate.Evaluator, error) {
	return evaluate.NewEvaluator(s.store, s.embedder, s.evalRepo, opts...)
}

func (s *Service) NewPromoter(opts ...promote.Option) (*promote.Promoter, error) {
	return promote.NewPromoter(s.store, s.lockRepo, s.evalRepo, opts...)
}
