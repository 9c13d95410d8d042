package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"facegate/internal/identity/models"
	"facegate/internal/identity/service/mocks"
	"facegate/pkg/platform/sentinel"
)

func (s *ServiceSuite) newCachedService(directory *mocks.MockDirectory) *Service {
	return NewService(s.mockStore, s.mockDetector, s.mockMatcher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAuditPublisher),
		WithDirectoryCache(directory),
	)
}

func (s *ServiceSuite) TestSearchUser() {
	s.T().Run("enrolled user found", func(t *testing.T) {
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "zhangwei").Return(identity, nil)

		result, err := s.service.SearchUser(context.Background(), &models.SearchUserRequest{Username: "zhangwei"})
		require.NoError(t, err)
		assert.True(t, result.Found)
		assert.True(t, result.FaceRegistered)
		assert.Equal(t, "zhangwei", result.Username)
	})

	s.T().Run("user without enrollment", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "zhangwei").Return(identity, nil)

		result, err := s.service.SearchUser(context.Background(), &models.SearchUserRequest{Username: "zhangwei"})
		require.NoError(t, err)
		assert.True(t, result.Found)
		assert.False(t, result.FaceRegistered)
	})

	s.T().Run("unknown username is not an error", func(t *testing.T) {
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "nobody").Return(nil, sentinel.ErrNotFound)

		result, err := s.service.SearchUser(context.Background(), &models.SearchUserRequest{Username: "nobody"})
		require.NoError(t, err)
		assert.False(t, result.Found)
		assert.False(t, result.FaceRegistered)
	})

	s.T().Run("cache hit skips the store", func(t *testing.T) {
		directory := mocks.NewMockDirectory(s.ctrl)
		svc := s.newCachedService(directory)
		cached := &models.SearchResult{Found: true, FaceRegistered: true, Username: "zhangwei"}
		directory.EXPECT().Get(gomock.Any(), "zhangwei").Return(cached, true, nil)

		result, err := svc.SearchUser(context.Background(), &models.SearchUserRequest{Username: "zhangwei"})
		require.NoError(t, err)
		assert.Equal(t, cached, result)
	})

	s.T().Run("cache miss stores the positive result", func(t *testing.T) {
		directory := mocks.NewMockDirectory(s.ctrl)
		svc := s.newCachedService(directory)
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		directory.EXPECT().Get(gomock.Any(), "zhangwei").Return(nil, false, nil)
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "zhangwei").Return(identity, nil)
		directory.EXPECT().Set(gomock.Any(), "zhangwei", gomock.Any()).Return(nil)

		result, err := svc.SearchUser(context.Background(), &models.SearchUserRequest{Username: "zhangwei"})
		require.NoError(t, err)
		assert.True(t, result.Found)
	})

	s.T().Run("negative results are not cached", func(t *testing.T) {
		directory := mocks.NewMockDirectory(s.ctrl)
		svc := s.newCachedService(directory)
		directory.EXPECT().Get(gomock.Any(), "nobody").Return(nil, false, nil)
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "nobody").Return(nil, sentinel.ErrNotFound)

		result, err := svc.SearchUser(context.Background(), &models.SearchUserRequest{Username: "nobody"})
		require.NoError(t, err)
		assert.False(t, result.Found)
	})

	s.T().Run("cache failure degrades to store lookup", func(t *testing.T) {
		directory := mocks.NewMockDirectory(s.ctrl)
		svc := s.newCachedService(directory)
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		directory.EXPECT().Get(gomock.Any(), "zhangwei").Return(nil, false, errors.New("redis down"))
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "zhangwei").Return(identity, nil)
		directory.EXPECT().Set(gomock.Any(), "zhangwei", gomock.Any()).Return(errors.New("redis down"))

		result, err := svc.SearchUser(context.Background(), &models.SearchUserRequest{Username: "zhangwei"})
		require.NoError(t, err)
		assert.True(t, result.Found)
	})
}

func (s *ServiceSuite) TestEnrollInvalidatesDirectory() {
	directory := mocks.NewMockDirectory(s.ctrl)
	svc := s.newCachedService(directory)
	identity := s.newEnrolledIdentity("13800138000", "zhangwei")
	box := models.BoundingBox{X: 1, Y: 1, Width: 10, Height: 10}

	s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
	s.mockStore.EXPECT().SetFaceReference(gomock.Any(), "13800138000", gomock.Any()).Return(nil)
	directory.EXPECT().Invalidate(gomock.Any(), "zhangwei").Return(nil)
	s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	_, err := svc.Enroll(context.Background(), &models.SaveFaceRequest{
		PhoneNumber: "13800138000",
		Username:    "zhangwei",
		BoundingBox: &box,
	})
	require.NoError(s.T(), err)
}
