package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"facegate/internal/identity/models"
	"facegate/internal/identity/store"
	dErrors "facegate/pkg/domain-errors"
	"facegate/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestSubmit() {
	s.T().Run("new phone number registers", func(t *testing.T) {
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Submit(context.Background(), &models.RegisterRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "zhangwei", result.Username)
		assert.NotEmpty(t, result.IdentityID)
	})

	s.T().Run("existing phone number conflicts with same username", func(t *testing.T) {
		existing := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(existing, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Submit(context.Background(), &models.RegisterRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.T().Run("existing phone number conflicts regardless of username", func(t *testing.T) {
		existing := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(existing, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Submit(context.Background(), &models.RegisterRequest{
			PhoneNumber: "13800138000",
			Username:    "someoneelse",
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.T().Run("duplicate username conflicts", func(t *testing.T) {
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(store.ErrDuplicateUsername)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Submit(context.Background(), &models.RegisterRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.T().Run("lost create race conflicts", func(t *testing.T) {
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(store.ErrDuplicatePhone)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Submit(context.Background(), &models.RegisterRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.T().Run("store failure is internal", func(t *testing.T) {
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(nil, errors.New("connection reset"))

		result, err := s.service.Submit(context.Background(), &models.RegisterRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestLogin() {
	s.T().Run("known phone number logs in", func(t *testing.T) {
		existing := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(existing, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Login(context.Background(), &models.LoginRequest{PhoneNumber: "13800138000"})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "zhangwei", result.Username)
		assert.Equal(t, existing.ID.String(), result.IdentityID)
	})

	s.T().Run("unknown phone number is not found", func(t *testing.T) {
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13900139000").Return(nil, sentinel.ErrNotFound)

		result, err := s.service.Login(context.Background(), &models.LoginRequest{PhoneNumber: "13900139000"})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
