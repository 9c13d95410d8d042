package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"facegate/internal/face/detect"
	"facegate/internal/identity/models"
	dErrors "facegate/pkg/domain-errors"
	"facegate/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestVerify() {
	probe := []detect.Observation{
		{BoundingBox: models.BoundingBox{X: 120, Y: 70, Width: 380, Height: 340}, Confidence: 0.95},
	}

	s.T().Run("self mode accepts at threshold", func(t *testing.T) {
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).Return(probe, nil)
		s.mockMatcher.EXPECT().Compare(identity.FaceReference, probe[0]).Return(0.90, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:        models.ModeSelf,
			PhoneNumber: "13800138000",
			Image:       encodedCapture(),
		})
		require.NoError(t, err)
		assert.True(t, result.Accepted, "a score exactly at the threshold is accepted")
		assert.InDelta(t, 0.90, result.Similarity, 1e-9)
		assert.Equal(t, "match", result.Reason)
	})

	s.T().Run("rejection is a result, not an error", func(t *testing.T) {
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).Return(probe, nil)
		s.mockMatcher.EXPECT().Compare(identity.FaceReference, probe[0]).Return(0.42, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:        models.ModeSelf,
			PhoneNumber: "13800138000",
			Image:       encodedCapture(),
		})
		require.NoError(t, err)
		assert.False(t, result.Accepted)
		assert.Equal(t, "similarity below threshold", result.Reason)
	})

	s.T().Run("other mode resolves by username", func(t *testing.T) {
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "zhangwei").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).Return(probe, nil)
		s.mockMatcher.EXPECT().Compare(identity.FaceReference, probe[0]).Return(0.97, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:     models.ModeOther,
			Username: "zhangwei",
			Image:    encodedCapture(),
		})
		require.NoError(t, err)
		assert.True(t, result.Accepted)
	})

	s.T().Run("target without enrollment", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)

		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:        models.ModeSelf,
			PhoneNumber: "13800138000",
			Image:       encodedCapture(),
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotEnrolled))
	})

	s.T().Run("unknown username", func(t *testing.T) {
		s.mockStore.EXPECT().FindByUsername(gomock.Any(), "nobody").Return(nil, sentinel.ErrNotFound)

		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:     models.ModeOther,
			Username: "nobody",
			Image:    encodedCapture(),
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.T().Run("no face in probe", func(t *testing.T) {
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).Return([]detect.Observation{}, nil)

		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:        models.ModeSelf,
			PhoneNumber: "13800138000",
			Image:       encodedCapture(),
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNoFaceDetected))
	})

	s.T().Run("missing phone number for self mode", func(t *testing.T) {
		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:  models.ModeSelf,
			Image: encodedCapture(),
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.T().Run("missing username for other mode", func(t *testing.T) {
		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:  models.ModeOther,
			Image: encodedCapture(),
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.T().Run("matcher failure is internal", func(t *testing.T) {
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).Return(probe, nil)
		s.mockMatcher.EXPECT().Compare(gomock.Any(), gomock.Any()).Return(0.0, errors.New("bad reference"))

		result, err := s.service.Verify(context.Background(), &models.VerifyRequest{
			Mode:        models.ModeSelf,
			PhoneNumber: "13800138000",
			Image:       encodedCapture(),
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.T().Run("custom threshold applies", func(t *testing.T) {
		svc := NewService(s.mockStore, s.mockDetector, s.mockMatcher,
			WithAuditPublisher(s.mockAuditPublisher),
			WithMatchThreshold(0.5),
		)
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).Return(probe, nil)
		s.mockMatcher.EXPECT().Compare(gomock.Any(), gomock.Any()).Return(0.6, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := svc.Verify(context.Background(), &models.VerifyRequest{
			Mode:        models.ModeSelf,
			PhoneNumber: "13800138000",
			Image:       encodedCapture(),
		})
		require.NoError(t, err)
		assert.True(t, result.Accepted)
	})
}
