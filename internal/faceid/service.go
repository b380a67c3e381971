// Package faceid maps participant photos to stored face identities
// through Rekognition, with photos archived in S3.
package faceid

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/pkg/storage"
)

// ErrNoFaceDetected is returned when the detector finds zero faces in
// a registration photo.
var ErrNoFaceDetected = errors.New("no face detected in image")

// IndexResult is the outcome of indexing a registration photo.
type IndexResult struct {
	FaceID     string
	ImageKey   string
	Confidence float64
}

// Match is the best search hit for a check-in photo.
type Match struct {
	ParticipantID string
	FaceID        string
	Confidence    float64
}

// Service wraps the Rekognition collection and the photo bucket.
type Service struct {
	rek        *rekognition.Client
	photos     *storage.S3
	collection string
	threshold  float32
	logger     *zap.Logger

	mu      sync.Mutex
	ensured bool
}

// NewService creates the face identity service. endpointURL overrides
// the Rekognition endpoint; empty uses the AWS default.
func NewService(awsCfg aws.Config, endpointURL string, photos *storage.S3, collection string, threshold float32, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
	return &Service{
		rek:        client,
		photos:     photos,
		collection: collection,
		threshold:  threshold,
		logger:     logger,
	}
}

// ensureCollection creates the collection when absent. The check is
// cached after the first success so steady-state calls skip the
// describe round-trip.
func (s *Service) ensureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	_, err := s.rek.DescribeCollection(ctx, &rekognition.DescribeCollectionInput{
		CollectionId: aws.String(s.collection),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return fmt.Errorf("describe collection: %w", err)
		}
		s.logger.Info("creating Rekognition collection", zap.String("collection", s.collection))
		if _, err := s.rek.CreateCollection(ctx, &rekognition.CreateCollectionInput{
			CollectionId: aws.String(s.collection),
		}); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	s.ensured = true
	return nil
}

// IndexFace uploads the photo to S3 under the participant's prefix and
// indexes the single face it contains. Fails with ErrNoFaceDetected
// when the detector returns zero faces.
func (s *Service) IndexFace(ctx context.Context, image []byte, participantID string) (*IndexResult, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	imageKey := storage.PhotoKey(participantID, uuid.New().String())
	if err := s.photos.UploadPhoto(ctx, imageKey, "image/jpeg", image); err != nil {
		return nil, err
	}

	out, err := s.rek.IndexFaces(ctx, &rekognition.IndexFacesInput{
		CollectionId:    aws.String(s.collection),
		Image:           &types.Image{Bytes: image},
		ExternalImageId: aws.String(participantID),
		MaxFaces:        aws.Int32(1),
		QualityFilter:   types.QualityFilterAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("index faces: %w", err)
	}
	if len(out.FaceRecords) == 0 {
		return nil, ErrNoFaceDetected
	}

	face := out.FaceRecords[0].Face
	s.logger.Info("face indexed",
		zap.String("participant_id", participantID),
		zap.Float64("confidence", float64(aws.ToFloat32(face.Confidence))),
	)
	return &IndexResult{
		FaceID:     aws.ToString(face.FaceId),
		ImageKey:   imageKey,
		Confidence: float64(aws.ToFloat32(face.Confidence)),
	}, nil
}

// SearchFace finds the best match above the similarity floor, or nil
// when no indexed face clears it.
func (s *Service) SearchFace(ctx context.Context, image []byte) (*Match, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	out, err := s.rek.SearchFacesByImage(ctx, &rekognition.SearchFacesByImageInput{
		CollectionId:       aws.String(s.collection),
		Image:              &types.Image{Bytes: image},
		MaxFaces:           aws.Int32(1),
		FaceMatchThreshold: aws.Float32(s.threshold),
	})
	if err != nil {
		return nil, fmt.Errorf("search faces: %w", err)
	}
	if len(out.FaceMatches) == 0 {
		return nil, nil
	}

	match := out.FaceMatches[0]
	s.logger.Info("face match found",
		zap.String("participant_id", aws.ToString(match.Face.ExternalImageId)),
		zap.Float64("similarity", float64(aws.ToFloat32(match.Similarity))),
	)
	return &Match{
		ParticipantID: aws.ToString(match.Face.ExternalImageId),
		FaceID:        aws.ToString(match.Face.FaceId),
		Confidence:    float64(aws.ToFloat32(match.Similarity)),
	}, nil
}

// DeleteFace removes a face from the collection.
func (s *Service) DeleteFace(ctx context.Context, faceID string) error {
	_, err := s.rek.DeleteFaces(ctx, &rekognition.DeleteFacesInput{
		CollectionId: aws.String(s.collection),
		FaceIds:      []string{faceID},
	})
	if err != nil {
		return fmt.Errorf("delete face: %w", err)
	}
	return nil
}

// ListFaces returns up to 100 indexed faces.
func (s *Service) ListFaces(ctx context.Context) ([]types.Face, error) {
	out, err := s.rek.ListFaces(ctx, &rekognition.ListFacesInput{
		CollectionId: aws.String(s.collection),
		MaxResults:   aws.Int32(100),
	})
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	return out.Faces, nil
}
