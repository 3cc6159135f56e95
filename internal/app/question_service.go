package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"liveclass-admin/internal/domain"
	"liveclass-admin/internal/metrics"
)

// answerOptions are the labels a question image can carry.
var answerOptions = []string{"A", "B", "C", "D"}

const questionMarks = 1

// QuestionUpload is one image picked by the admin plus its answer key.
type QuestionUpload struct {
	Filename      string
	ContentType   string
	Body          io.ReadSeeker
	CorrectOption string
}

// QuestionService stores question images and their answer documents.
type QuestionService struct {
	store   *guardedStore
	objects ObjectStore
	timeout time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	newKey  func() string
}

func NewQuestionService(store DocumentStore, objects ObjectStore, cfg ServiceConfig) *QuestionService {
	cfg = cfg.withDefaults()
	return &QuestionService{
		store:   guard(store, cfg),
		objects: objects,
		timeout: cfg.StoreTimeout,
		now:     cfg.Now,
		metrics: cfg.Metrics,
		newKey:  func() string { return "questions/" + uuid.NewString() },
	}
}

// NormalizeOption upper-cases opt and defaults an empty label to "A".
func NormalizeOption(opt string) (string, error) {
	opt = strings.ToUpper(strings.TrimSpace(opt))
	if opt == "" {
		return answerOptions[0], nil
	}
	for _, o := range answerOptions {
		if o == opt {
			return opt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidOption, opt)
}

// Upload stores each image under a fresh random key and appends its question document,
// in order. Every answer label is validated before anything is written. On failure the
// questions stored so far are returned with the error.
func (s *QuestionService) Upload(ctx context.Context, uploads []QuestionUpload) ([]domain.Question, error) {
	if len(uploads) == 0 {
		return nil, domain.ErrNoQuestions
	}
	options := make([]string, len(uploads))
	for i, u := range uploads {
		opt, err := NormalizeOption(u.CorrectOption)
		if err != nil {
			return nil, err
		}
		options[i] = opt
	}

	stored := make([]domain.Question, 0, len(uploads))
	for i, u := range uploads {
		key := s.newKey()
		if err := s.putObject(ctx, key, u); err != nil {
			return stored, err
		}

		q := domain.Question{
			ImageURL:      s.objects.PublicURL(key),
			CorrectOption: options[i],
			Marks:         questionMarks,
			CreatedAt:     s.now(),
		}
		data, err := json.Marshal(q)
		if err != nil {
			return stored, err
		}
		id, err := s.store.Append(ctx, domain.CollectionQuestions, data)
		if err != nil {
			s.discardObject(ctx, key)
			return stored, err
		}
		q.ID = id
		stored = append(stored, q)
		s.metrics.QuestionUploaded()
	}
	return stored, nil
}

func (s *QuestionService) putObject(ctx context.Context, key string, u QuestionUpload) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.objects.Put(ctx, key, u.Body, contentType); err != nil {
		return persistenceErr("put object "+key, err)
	}
	return nil
}

// discardObject removes an image whose question document could not be written,
// when the object store supports deletes.
func (s *QuestionService) discardObject(ctx context.Context, key string) {
	d, ok := s.objects.(interface {
		Delete(ctx context.Context, key string) error
	})
	if !ok {
		return
	}
	if err := d.Delete(ctx, key); err != nil {
		slog.Warn("discard orphaned question image", "key", key, "error", err)
	}
}
