// Package store implements the token collection's read-modify-write
// protocol. Every operation fetches the whole file plus its version
// token, mutates the decoded list in memory, and writes the whole file
// back with that token. Concurrent writers race on purpose: the remote
// store rejects the loser's stale token and the failure propagates to
// the caller without a retry.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ycxd3695-spec/token-management-system/internal/codec"
	"github.com/ycxd3695-spec/token-management-system/internal/models"
)

// RemoteFile is the capability the service needs from the remote store.
// githubfs.Client satisfies it; tests use an in-memory fake.
type RemoteFile interface {
	Fetch(ctx context.Context) (data []byte, sha string, exists bool, err error)
	Put(ctx context.Context, data []byte, sha, message string) (newSHA string, err error)
}

// Service orchestrates token mutations against one remote file.
type Service struct {
	remote RemoteFile
	format codec.Format
	logger *slog.Logger
	now    func() time.Time
	seq    atomic.Int64
}

func New(remote RemoteFile, format codec.Format, logger *slog.Logger) *Service {
	return &Service{
		remote: remote,
		format: format,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the current collection.
func (s *Service) List(ctx context.Context) ([]models.Token, error) {
	tokens, _, err := s.load(ctx)
	return tokens, err
}

// Insert validates the input, rejects a value already present in the
// fetched snapshot, and appends a new record. Validation runs before
// any remote call.
func (s *Service) Insert(ctx context.Context, in models.TokenInput) (models.Token, error) {
	name := strings.TrimSpace(in.Name)
	value := strings.TrimSpace(in.Value)
	if name == "" || value == "" {
		return models.Token{}, fmt.Errorf("%w: name and token value are required", models.ErrValidation)
	}

	tokens, sha, err := s.load(ctx)
	if err != nil {
		return models.Token{}, err
	}
	for _, t := range tokens {
		if t.Value == value {
			return models.Token{}, fmt.Errorf("%w: a token with this value already exists", models.ErrDuplicate)
		}
	}

	createdAt := strings.TrimSpace(in.CreatedAt)
	if createdAt == "" {
		createdAt = models.Timestamp(s.now())
	}
	created := models.Token{
		ID:        s.newID(),
		Name:      name,
		Value:     value,
		Tag:       strings.TrimSpace(in.Tag),
		CreatedAt: createdAt,
	}
	tokens = append(tokens, created)

	if err := s.save(ctx, tokens, sha, fmt.Sprintf("Add token %q", created.Name)); err != nil {
		return models.Token{}, err
	}
	s.logger.Info("token added", "id", created.ID, "name", created.Name)
	return created, nil
}

// Update replaces the editable fields of the record with the given id.
// CreatedAt is only overwritten when the caller supplies one. No
// duplicate check is performed on update.
func (s *Service) Update(ctx context.Context, id string, in models.TokenInput) (models.Token, error) {
	tokens, sha, err := s.load(ctx)
	if err != nil {
		return models.Token{}, err
	}

	i := indexOf(tokens, id)
	if i < 0 {
		return models.Token{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	tokens[i].Name = in.Name
	tokens[i].Value = in.Value
	tokens[i].Tag = in.Tag
	if strings.TrimSpace(in.CreatedAt) != "" {
		tokens[i].CreatedAt = in.CreatedAt
	}

	if err := s.save(ctx, tokens, sha, fmt.Sprintf("Update token %q", tokens[i].Name)); err != nil {
		return models.Token{}, err
	}
	s.logger.Info("token updated", "id", id, "name", tokens[i].Name)
	return tokens[i], nil
}

// Delete removes the record with the given id and returns it.
func (s *Service) Delete(ctx context.Context, id string) (models.Token, error) {
	tokens, sha, err := s.load(ctx)
	if err != nil {
		return models.Token{}, err
	}

	i := indexOf(tokens, id)
	if i < 0 {
		return models.Token{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	removed := tokens[i]
	tokens = append(tokens[:i], tokens[i+1:]...)

	if err := s.save(ctx, tokens, sha, fmt.Sprintf("Delete token %q", removed.Name)); err != nil {
		return models.Token{}, err
	}
	s.logger.Info("token deleted", "id", id, "name", removed.Name)
	return removed, nil
}

func (s *Service) load(ctx context.Context) ([]models.Token, string, error) {
	data, sha, exists, err := s.remote.Fetch(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("read token file: %w", err)
	}
	if !exists {
		return []models.Token{}, "", nil
	}

	tokens, detected := codec.Decode(data)
	if s.format == codec.FormatJSON && detected == codec.FormatText {
		// Could be an intentionally legacy file or corrupt JSON; the two
		// are indistinguishable here, so load it and leave a trace.
		s.logger.Warn("token file read as legacy text despite .json path", "records", len(tokens))
	}
	return tokens, sha, nil
}

func (s *Service) save(ctx context.Context, tokens []models.Token, sha, message string) error {
	data, err := codec.Encode(tokens, s.format)
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if _, err := s.remote.Put(ctx, data, sha, message); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// newID issues a time-based id unique for the life of the process:
// base-36 milliseconds plus a base-36 sequence number.
func (s *Service) newID() string {
	n := s.seq.Add(1)
	return strconv.FormatInt(s.now().UnixMilli(), 36) + strconv.FormatInt(n, 36)
}

func indexOf(tokens []models.Token, id string) int {
	for i, t := range tokens {
		if t.ID == id {
			return i
		}
	}
	return -1
}
