package service

import (
	"context"
	"errors"

	"facegate/internal/identity/models"
	"facegate/internal/platform/tracer"
	dErrors "facegate/pkg/domain-errors"
	"facegate/pkg/platform/sentinel"
)

// SearchUser looks up a verification target by username. The outcome is
// three-valued: not found, found but not enrolled, or found and enrolled.
// Only positive results are cached; a fresh registration must be visible on
// the next lookup.
func (s *Service) SearchUser(ctx context.Context, req *models.SearchUserRequest) (*models.SearchResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSearch)
	result, cacheHit, err := s.searchUser(ctx, req)
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, cacheHit))
	span.End(err)
	return result, err
}

func (s *Service) searchUser(ctx context.Context, req *models.SearchUserRequest) (*models.SearchResult, bool, error) {
	if s.directory != nil {
		cached, hit, err := s.directory.Get(ctx, req.Username)
		if err != nil {
			s.logger.WarnContext(ctx, "directory cache lookup failed",
				"username", req.Username,
				"error", err,
			)
		} else {
			s.observeDirectoryCache(hit)
			if hit {
				return cached, true, nil
			}
		}
	}

	identity, err := s.store.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &models.SearchResult{Found: false}, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up username")
	}

	result := &models.SearchResult{
		Found:          true,
		FaceRegistered: identity.Enrolled(),
		Username:       identity.Username,
	}
	if s.directory != nil {
		if err := s.directory.Set(ctx, req.Username, result); err != nil {
			s.logger.WarnContext(ctx, "directory cache store failed",
				"username", req.Username,
				"error", err,
			)
		}
	}
	return result, false, nil
}
