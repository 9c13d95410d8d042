package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"facegate/internal/identity/models"
	"facegate/internal/identity/service/mocks"
	"facegate/internal/platform/tracer"
)

// recordingTracer collects finished spans so tests can assert on names and
// attributes.
type recordingTracer struct {
	mu    sync.Mutex
	spans []*recordedSpan
}

type recordedSpan struct {
	name  string
	attrs []tracer.Attribute
	err   error
}

func (t *recordingTracer) Start(ctx context.Context, name string, attrs ...tracer.Attribute) (context.Context, tracer.Span) {
	span := &recordedSpan{name: name, attrs: attrs}
	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()
	return ctx, span
}

func (t *recordingTracer) find(name string) *recordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, span := range t.spans {
		if span.name == name {
			return span
		}
	}
	return nil
}

func (s *recordedSpan) End(err error) { s.err = err }

func (s *recordedSpan) SetAttributes(attrs ...tracer.Attribute) {
	s.attrs = append(s.attrs, attrs...)
}

func (s *recordedSpan) AddEvent(string, ...tracer.Attribute) {}

func (s *recordedSpan) attr(key string) (any, bool) {
	for _, a := range s.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

func (s *ServiceSuite) newTracedService(rec *recordingTracer, extra ...Option) *Service {
	opts := append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAuditPublisher),
		WithTracer(rec),
	}, extra...)
	return NewService(s.mockStore, s.mockDetector, s.mockMatcher, opts...)
}

func (s *ServiceSuite) TestGetFaceSpan() {
	rec := &recordingTracer{}
	svc := s.newTracedService(rec)
	identity := s.newEnrolledIdentity("13800138000", "zhangwei")
	s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)

	_, err := svc.GetFace(context.Background(), "13800138000")
	require.NoError(s.T(), err)

	span := rec.find(tracer.SpanGetFace)
	require.NotNil(s.T(), span)
	hash, ok := span.attr(tracer.AttrPhoneHash)
	require.True(s.T(), ok)
	assert.Equal(s.T(), tracer.HashPhone("13800138000"), hash)
	assert.NoError(s.T(), span.err)
}

func (s *ServiceSuite) TestSearchUserSpanRecordsCacheHit() {
	s.T().Run("cache hit", func(t *testing.T) {
		rec := &recordingTracer{}
		directory := mocks.NewMockDirectory(s.ctrl)
		svc := s.newTracedService(rec, WithDirectoryCache(directory))
		cached := &models.SearchResult{Found: true, Username: "zhangwei"}
		directory.EXPECT().Get(gomock.Any(), "zhangwei").Return(cached, true, nil)

		_, err := svc.SearchUser(context.Background(), &models.SearchUserRequest{Username: "zhangwei"})
		require.NoError(t, err)

		span := rec.find(tracer.SpanSearch)
		require.NotNil(t, span)
		hit, ok := span.attr(tracer.AttrCacheHit)
		require.True(t, ok)
		assert.Equal(t, true, hit)
	})

	s.T().Run("cache miss falls through to the store", func(t *testing.T) {
		rec := &recordingTracer{}
		directory := mocks.NewMockDirectory(s.ctrl)
		svc := s.newTracedService(rec, WithDirectoryCache(directory))
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		directory.EXPECT().Get(gomock.Any(), "zhangwei").Return(nil, false, nil)
		directory.EXPECT().Set(gomock.Any(), "zhangwei", gomock.Any()).Return(nil)
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "zhangwei").Return(identity, nil)

		_, err := svc.SearchUser(context.Background(), &models.SearchUserRequest{Username: "zhangwei"})
		require.NoError(t, err)

		span := rec.find(tracer.SpanSearch)
		require.NotNil(t, span)
		hit, ok := span.attr(tracer.AttrCacheHit)
		require.True(t, ok)
		assert.Equal(t, false, hit)
	})
}
