// Package store persists rendered charts as flat files named by a random
// identifier and builds their public links.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"coinplot/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Ext is the file extension of every stored chart.
	Ext = ".svg"
	// RoutePath is the retrieval endpoint path the links point at.
	RoutePath = "/plts"
)

// Store writes chart images into a single flat folder.
type Store struct {
	dir        string
	linkPrefix string
	tracer     trace.Tracer
	log        zerolog.Logger
	newID      func() string
}

// New creates a store rooted at dir whose links are served from baseURL.
func New(tracer trace.Tracer, logger zerolog.Logger, dir, baseURL string) *Store {
	return &Store{
		dir:        dir,
		linkPrefix: strings.TrimRight(baseURL, "/") + RoutePath + "?id=",
		tracer:     tracer,
		log:        logger,
		newID:      func() string { return uuid.NewString() },
	}
}

// Dir returns the artifact folder.
func (s *Store) Dir() string { return s.dir }

// Link returns the public URL of the artifact with the given id.
func (s *Store) Link(id string) string { return s.linkPrefix + id }

func (s *Store) path(id string) string { return filepath.Join(s.dir, id+Ext) }

// NewID draws identifiers until one has no file in the folder.
func (s *Store) NewID() (string, error) {
	for {
		id := s.newID()
		_, err := os.Stat(s.path(id))
		if errors.Is(err, fs.ErrNotExist) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w: %v", id, domain.ErrArtifactIO, err)
		}
	}
}

// Save writes image under a fresh identifier. The file is created exclusively
// so two concurrent writers can never share an id.
func (s *Store) Save(ctx context.Context, image []byte) (*domain.ChartArtifact, error) {
	_, span := s.tracer.Start(ctx, "store.save")
	defer span.End()
	span.SetAttributes(attribute.Int("bytes", len(image)))

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w: %v", s.dir, domain.ErrArtifactIO, err)
	}

	for {
		id, err := s.NewID()
		if err != nil {
			return nil, err
		}
		path := s.path(id)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			s.log.Debug().Str("id", id).Msg("artifact id taken, drawing another")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create %s: %w: %v", path, domain.ErrArtifactIO, err)
		}

		_, werr := f.Write(image)
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			return nil, fmt.Errorf("write %s: %w: %v", path, domain.ErrArtifactIO, err)
		}

		span.SetAttributes(attribute.String("artifact.id", id))
		s.log.Info().Str("id", id).Int("bytes", len(image)).Msg("chart saved")
		return &domain.ChartArtifact{ID: id, Path: path, Link: s.Link(id)}, nil
	}
}

// Open returns the stored chart with the given id. Anything that is not a
// canonical UUID is rejected as not found.
func (s *Store) Open(id string) (io.ReadCloser, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("artifact %q: %w", id, domain.ErrNotFound)
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("artifact %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", id, domain.ErrArtifactIO, err)
	}
	return f, nil
}

// ValidID reports whether id is a canonical hyphenated UUID.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}
