package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"facegate/internal/face/detect"
	"facegate/internal/identity/models"
	dErrors "facegate/pkg/domain-errors"
	"facegate/pkg/platform/sentinel"
)

func encodedCapture() string {
	return base64.StdEncoding.EncodeToString([]byte("capture-bytes"))
}

func (s *ServiceSuite) TestEnroll() {
	box := models.BoundingBox{X: 128, Y: 72, Width: 384, Height: 336}

	s.T().Run("first enrollment with uploaded capture", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), []byte("capture-bytes")).Return([]detect.Observation{
			{BoundingBox: box, Confidence: 0.95},
		}, nil)
		s.mockStore.EXPECT().SetFaceReference(gomock.Any(), "13800138000", gomock.Any()).Return(nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
			Image:       encodedCapture(),
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.Replaced)
		assert.Equal(t, box, result.BoundingBox)
		assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	})

	s.T().Run("re-enrollment replaces the reference", func(t *testing.T) {
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockStore.EXPECT().SetFaceReference(gomock.Any(), "13800138000", gomock.Any()).Return(nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
			BoundingBox: &box,
		})
		require.NoError(t, err)
		assert.True(t, result.Replaced)
	})

	s.T().Run("most confident observation wins", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		better := models.BoundingBox{X: 10, Y: 10, Width: 200, Height: 200}
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).Return([]detect.Observation{
			{BoundingBox: box, Confidence: 0.60},
			{BoundingBox: better, Confidence: 0.98},
		}, nil)
		s.mockStore.EXPECT().SetFaceReference(gomock.Any(), "13800138000", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, ref *models.FaceReference) error {
				assert.Equal(t, better, ref.BoundingBox)
				return nil
			})
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
			Image:       encodedCapture(),
		})
		require.NoError(t, err)
		assert.Equal(t, better, result.BoundingBox)
	})

	s.T().Run("no face in capture", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).Return(nil, nil)

		result, err := s.service.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
			Image:       encodedCapture(),
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNoFaceDetected))
	})

	s.T().Run("unregistered phone number", func(t *testing.T) {
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13900139000").Return(nil, sentinel.ErrNotFound)

		result, err := s.service.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13900139000",
			Username:    "zhangwei",
			BoundingBox: &box,
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.T().Run("missing image and bounding box", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)

		result, err := s.service.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.T().Run("degenerate bounding box", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)

		result, err := s.service.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
			BoundingBox: &models.BoundingBox{X: 0, Y: 0, Width: 0, Height: 100},
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.T().Run("detector not ready propagates", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockDetector.EXPECT().Detect(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotInitialized, "detector not initialized"))

		result, err := s.service.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
			Image:       encodedCapture(),
		})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotInitialized))
	})

	s.T().Run("feature extractor fills the reference", func(t *testing.T) {
		features := []float32{0.1, 0.2, 0.3}
		svc := NewService(s.mockStore, s.mockDetector, s.mockMatcher,
			WithAuditPublisher(s.mockAuditPublisher),
			WithFeatureExtractor(func(detect.Observation) []float32 { return features }),
		)
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)
		s.mockStore.EXPECT().SetFaceReference(gomock.Any(), "13800138000", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, ref *models.FaceReference) error {
				assert.Equal(t, features, ref.Features)
				return nil
			})
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		_, err := svc.Enroll(context.Background(), &models.SaveFaceRequest{
			PhoneNumber: "13800138000",
			Username:    "zhangwei",
			BoundingBox: &box,
		})
		require.NoError(t, err)
	})
}

func (s *ServiceSuite) TestGetFace() {
	s.T().Run("enrolled identity reports its box", func(t *testing.T) {
		identity := s.newEnrolledIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)

		status, err := s.service.GetFace(context.Background(), "13800138000")
		require.NoError(t, err)
		assert.True(t, status.Registered)
		require.NotNil(t, status.BoundingBox)
		assert.Equal(t, identity.FaceReference.BoundingBox, *status.BoundingBox)
	})

	s.T().Run("unenrolled identity is not registered", func(t *testing.T) {
		identity := s.newTestIdentity("13800138000", "zhangwei")
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13800138000").Return(identity, nil)

		status, err := s.service.GetFace(context.Background(), "13800138000")
		require.NoError(t, err)
		assert.False(t, status.Registered)
		assert.Nil(t, status.BoundingBox)
	})

	s.T().Run("missing identity is not an error", func(t *testing.T) {
		s.mockStore.EXPECT().FindByPhone(gomock.Any(), "13900139000").Return(nil, sentinel.ErrNotFound)

		status, err := s.service.GetFace(context.Background(), "13900139000")
		require.NoError(t, err)
		assert.False(t, status.Registered)
	})
}
