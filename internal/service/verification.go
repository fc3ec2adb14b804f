package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"haul/internal/api"
	"haul/internal/domain"
	"haul/internal/logging"
)

// VerificationService collects the driver's documents and submits them for review.
type VerificationService struct {
	backend VerificationBackend
	log     *slog.Logger
	open    func(path string) (io.ReadCloser, error)

	mu     sync.Mutex
	docs   map[domain.DocumentType]domain.Document
	status domain.VerificationStatus
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(backend VerificationBackend, log *slog.Logger) *VerificationService {
	return &VerificationService{
		backend: backend,
		log:     log,
		open:    func(path string) (io.ReadCloser, error) { return os.Open(path) },
		docs:    make(map[domain.DocumentType]domain.Document),
	}
}

// AddDocument selects an image for a document type, replacing any previous one.
func (s *VerificationService) AddDocument(docType domain.DocumentType, path string) error {
	if !docType.Valid() {
		return ErrInvalidDocumentType
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrDocumentPathRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docType] = domain.Document{Type: docType, Path: path}
	return nil
}

// RemoveDocument drops the selected image of a document type.
func (s *VerificationService) RemoveDocument(docType domain.DocumentType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docType)
}

// Documents returns the selected documents in the required order.
func (s *VerificationService) Documents() []domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Document, 0, len(s.docs))
	for _, t := range domain.RequiredDocuments {
		if d, ok := s.docs[t]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Status returns the verification status.
func (s *VerificationService) Status() domain.VerificationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Submit uploads every required document and marks the verification pending.
func (s *VerificationService) Submit(ctx context.Context) error {
	docs := s.Documents()
	if len(docs) < len(domain.RequiredDocuments) {
		return ErrDocumentsIncomplete
	}

	uploads := make([]api.Upload, 0, len(docs))
	for _, d := range docs {
		f, err := s.open(d.Path)
		if err != nil {
			closeUploads(uploads)
			return err
		}
		uploads = append(uploads, api.Upload{Type: d.Type, Data: f})
	}
	defer closeUploads(uploads)

	if err := s.backend.SubmitVerification(ctx, uploads); err != nil {
		return err
	}

	s.mu.Lock()
	for t, d := range s.docs {
		d.Uploaded = true
		s.docs[t] = d
	}
	s.status = domain.VerificationPending
	s.mu.Unlock()

	logging.Info(ctx, s.log, "verification_submit", "documents submitted", "documents", len(docs))
	return nil
}

func closeUploads(uploads []api.Upload) {
	for _, u := range uploads {
		if c, ok := u.Data.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
