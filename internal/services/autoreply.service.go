package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/i-snrdra/SWAG/internal/model"
	"github.com/i-snrdra/SWAG/pkg/logger"
)

const (
	ruleCacheKey = "auto_replies:rules"
	ruleCacheTTL = 5 * time.Minute
)

type AutoReplyRepository interface {
	Create(ctx context.Context, rule *model.AutoReply) (*model.AutoReply, error)
	List(ctx context.Context) ([]*model.AutoReply, error)
	ListOldestFirst(ctx context.Context) ([]*model.AutoReply, error)
	Delete(ctx context.Context, id int64) error
}

// RuleCache is the slice of the redis adapter the rule cache needs.
type RuleCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Del(key string) error
}

// AutoReplyService owns the keyword rules: CRUD over the repository and
// the matcher the inbound path consults. Matching reads rules through
// the cache; create/delete invalidate it.
type AutoReplyService struct {
	repo  AutoReplyRepository
	cache RuleCache
}

// NewAutoReplyService creates the service. cache may be nil, in which
// case every match goes to the repository.
func NewAutoReplyService(repo AutoReplyRepository, cache RuleCache) *AutoReplyService {
	return &AutoReplyService{
		repo:  repo,
		cache: cache,
	}
}

func (s *AutoReplyService) Create(ctx context.Context, p model.AutoReplyCreateRequest) (*model.AutoReply, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}

	created, err := s.repo.Create(ctx, &model.AutoReply{
		Keyword:  p.Keyword,
		Response: p.Response,
	})
	if err != nil {
		return nil, fmt.Errorf("create auto-reply rule: %v: %w", err, ErrPersistence)
	}

	s.invalidate()
	return created, nil
}

func (s *AutoReplyService) List(ctx context.Context) ([]*model.AutoReply, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list auto-reply rules: %v: %w", err, ErrPersistence)
	}
	return rules, nil
}

// Delete is idempotent: removing an id that does not exist succeeds.
func (s *AutoReplyService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete auto-reply rule: %v: %w", err, ErrPersistence)
	}
	s.invalidate()
	return nil
}

// Match returns the rule whose keyword is a case-insensitive substring
// of text, or nil when nothing matches. Rules are scanned oldest first,
// so when several keywords match the lowest id wins deterministically.
func (s *AutoReplyService) Match(ctx context.Context, text string) (*model.AutoReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	rules, err := s.rules(ctx)
	if err != nil {
		return nil, err
	}

	folded := strings.ToLower(text)
	for _, rule := range rules {
		if rule.Keyword == "" {
			continue
		}
		if strings.Contains(folded, strings.ToLower(rule.Keyword)) {
			return rule, nil
		}
	}
	return nil, nil
}

func (s *AutoReplyService) rules(ctx context.Context) ([]*model.AutoReply, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ruleCacheKey); err == nil {
			var cached []*model.AutoReply
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			// corrupt entry, fall through and refresh
		}
	}

	rules, err := s.repo.ListOldestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("load auto-reply rules: %v: %w", err, ErrPersistence)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(rules); err == nil {
			if err := s.cache.Set(ruleCacheKey, raw, ruleCacheTTL); err != nil {
				logger.Warn("failed to cache auto-reply rules", "error", err)
			}
		}
	}
	return rules, nil
}

func (s *AutoReplyService) invalidate() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ruleCacheKey); err != nil {
		logger.Warn("failed to invalidate auto-reply rule cache", "error", err)
	}
}
