package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/mapper"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/record"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/validator"
)

// ErrInvalidSubmission marks errors caused by the submitted document rather
// than by the service.
var ErrInvalidSubmission = errors.New("invalid telemetry submission")

// SchemaSource composes the project schema, typically *schema.Composer.
type SchemaSource interface {
	Compose(ctx context.Context, p *project.Project) ([]byte, error)
}

// RecordStore persists mapped records, typically
// *repository.ReferenceRepository.
type RecordStore interface {
	Insert(ctx context.Context, rec record.Record) error
}

// IngestService validates, maps and stores telemetry submissions for one
// project
type IngestService struct {
	project *project.Project
	schemas SchemaSource
	mapper  *mapper.Mapper
	store   RecordStore
	log     *logger.Logger

	mu        sync.RWMutex
	compiled  []byte
	validator *validator.Validator
}

// NewIngestService creates a new IngestService
func NewIngestService(p *project.Project, schemas SchemaSource, store RecordStore, log *logger.Logger) *IngestService {
	if log == nil {
		log = logger.Nop()
	}
	return &IngestService{
		project: p,
		schemas: schemas,
		mapper:  mapper.New(p),
		store:   store,
		log:     log.With("project", p.Slug()),
	}
}

// Project returns the project submissions are accepted for
func (s *IngestService) Project() *project.Project {
	return s.project
}

// Schema returns the composed schema served to reporting instances
func (s *IngestService) Schema(ctx context.Context) ([]byte, error) {
	doc, err := s.schemas.Compose(ctx, s.project)
	if err != nil {
		return nil, fmt.Errorf("failed to compose schema: %w", err)
	}
	return doc, nil
}

// Prepare composes and compiles the project schema once so that a template
// or project that can never validate fails before the service takes traffic.
func (s *IngestService) Prepare(ctx context.Context) error {
	_, err := s.currentValidator(ctx)
	return err
}

// Submit handles one raw submission body of the form {"data": {...}}.
// Errors caused by the body wrap ErrInvalidSubmission.
func (s *IngestService) Submit(ctx context.Context, body []byte) (record.Record, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}

	v, err := s.currentValidator(ctx)
	if err != nil {
		return nil, err
	}
	if err := v.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}

	obj, _ := doc.(map[string]any)
	data, ok := obj["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: data must be an object", ErrInvalidSubmission)
	}

	rec, err := s.mapper.Map(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Debug("telemetry stored", "uuid", rec[record.ColUUID], "columns", len(rec))
	return rec, nil
}

// currentValidator returns a validator for the current composed schema,
// recompiling only when the schema bytes change.
func (s *IngestService) currentValidator(ctx context.Context) (*validator.Validator, error) {
	doc, err := s.Schema(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.validator != nil && bytes.Equal(s.compiled, doc) {
		v := s.validator
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	v, err := validator.Compile(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	s.mu.Lock()
	s.compiled = doc
	s.validator = v
	s.mu.Unlock()

	return v, nil
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("malformed JSON: trailing data")
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, errors.New("submission must be a JSON object")
	}
	return doc, nil
}
