package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/dto"
	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/internal/pkg/apperror"
	"cv-evaluator-be/internal/pkg/logger"
	"cv-evaluator-be/internal/repository/contract"
	"cv-evaluator-be/pkg/cvparser"
	"cv-evaluator-be/pkg/evaluator"
	"cv-evaluator-be/pkg/events"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type IEvaluationService interface {
	UploadCV(ctx context.Context, req *dto.UploadCvRequest, file *multipart.FileHeader) (*dto.UploadCvResponse, error)
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	EvaluateJob(ctx context.Context, req *dto.JobMatchRequest) (*dto.ChatResponse, error)
	InitialEvaluation(ctx context.Context, req *dto.InitialEvaluationRequest) (*dto.ChatResponse, error)
	GetSession(ctx context.Context, sessionId, userId string) (*dto.SessionDetailResponse, error)
	ListSessions(ctx context.Context, userId string) ([]dto.SessionSummaryResponse, error)
	DeleteSession(ctx context.Context, sessionId, userId string) error
	ClearSession(ctx context.Context, sessionId, userId string) (*entity.PromptInfo, error)
}

type evaluationService struct {
	sessions  contract.CvSessionRepository
	evaluator evaluator.IEvaluator
	publisher events.Publisher
	uploadDir string
	logger    logger.ILogger
}

func NewEvaluationService(
	sessions contract.CvSessionRepository,
	evaluator evaluator.IEvaluator,
	publisher events.Publisher,
	uploadDir string,
	logger logger.ILogger,
) IEvaluationService {
	if publisher == nil {
		publisher = events.NopPublisher()
	}
	return &evaluationService{
		sessions:  sessions,
		evaluator: evaluator,
		publisher: publisher,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

func (s *evaluationService) UploadCV(ctx context.Context, req *dto.UploadCvRequest, file *multipart.FileHeader) (*dto.UploadCvResponse, error) {
	// 1. Check File
	if file == nil {
		return nil, apperror.Validation(apperror.MsgMissingFile)
	}
	if file.Size > constant.MaxUploadSize {
		return nil, apperror.New(apperror.KindFileTooLarge, apperror.MsgFileTooLarge)
	}

	// 2. Store Temp Copy (removed once parsed)
	path, err := s.saveUpload(file)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("UPLOAD", "Failed to remove temp upload", map[string]interface{}{
				"path":  path,
				"error": rmErr.Error(),
			})
		}
	}()

	// 3. Extract Text & Sections
	cv, err := cvparser.ParseCV(path)
	if err != nil {
		if errors.Is(err, cvparser.ErrInvalidPDF) {
			return nil, apperror.Wrap(apperror.KindInvalidFile, "Failed to process CV: unreadable PDF", err)
		}
		return nil, apperror.Internal("Failed to process CV", err)
	}

	// 4. Create Session
	filename := filepath.Base(file.Filename)
	session, err := s.sessions.Create(ctx, req.UserId, cv.Document.Text, toEntitySections(cv.Sections), filename, cv.Document.NumPages)
	if err != nil {
		return nil, apperror.Internal("Failed to create session", err)
	}

	// 5. Log & Publish
	s.logger.Info("UPLOAD", "CV session created", map[string]interface{}{
		"session_id":        session.Id,
		"user_id":           session.UserId,
		"num_pages":         session.NumPages,
		"duplicate_headers": len(cv.Classification.Duplicates),
	})
	s.publish(ctx, constant.EventSessionCreated, map[string]interface{}{
		"sessionId": session.Id,
		"userId":    session.UserId,
		"filename":  session.CvFilename,
		"numPages":  session.NumPages,
	})

	return &dto.UploadCvResponse{
		SessionId:  session.Id,
		UserId:     session.UserId,
		Filename:   session.CvFilename,
		NumPages:   session.NumPages,
		Sections:   dto.NewSectionFlags(session.CvSections),
		PromptInfo: session.PromptInfo(),
	}, nil
}

// saveUpload sniffs the content and copies it to a uniquely named file in
// uploadDir. The caller removes the file.
func (s *evaluationService) saveUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", apperror.Internal("Failed to read upload", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", apperror.Internal("Failed to read upload", err)
	}
	if !mt.Is(constant.AllowedUploadMIME) {
		return "", apperror.New(apperror.KindInvalidFile, apperror.MsgInvalidFileType)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", apperror.Internal("Failed to read upload", err)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", apperror.Internal("Failed to prepare upload directory", err)
	}
	path := filepath.Join(s.uploadDir, fmt.Sprintf("%s-cv.pdf", uuid.NewString()))

	dst, err := os.Create(path)
	if err != nil {
		return "", apperror.Internal("Failed to store upload", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", apperror.Internal("Failed to store upload", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", apperror.Internal("Failed to store upload", err)
	}
	return path, nil
}

func (s *evaluationService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if err := s.requireOwner(ctx, req.SessionId, req.UserId); err != nil {
		return nil, err
	}
	result, err := s.evaluator.Chat(ctx, req.SessionId, req.Message)
	return s.chatResponse(ctx, req.SessionId, req.UserId, result, err)
}

func (s *evaluationService) EvaluateJob(ctx context.Context, req *dto.JobMatchRequest) (*dto.ChatResponse, error) {
	if err := s.requireOwner(ctx, req.SessionId, req.UserId); err != nil {
		return nil, err
	}
	result, err := s.evaluator.EvaluateJobMatch(ctx, req.SessionId, req.JobDescription)
	return s.chatResponse(ctx, req.SessionId, req.UserId, result, err)
}

func (s *evaluationService) InitialEvaluation(ctx context.Context, req *dto.InitialEvaluationRequest) (*dto.ChatResponse, error) {
	if err := s.requireOwner(ctx, req.SessionId, req.UserId); err != nil {
		return nil, err
	}
	result, err := s.evaluator.InitialEvaluation(ctx, req.SessionId, req.JobDescription)
	return s.chatResponse(ctx, req.SessionId, req.UserId, result, err)
}

func (s *evaluationService) chatResponse(ctx context.Context, sessionId, userId string, result *evaluator.ChatResult, err error) (*dto.ChatResponse, error) {
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			s.logger.Error("CHAT", "Chat failed", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		}
		return nil, err
	}

	s.publish(ctx, constant.EventPromptUsed, map[string]interface{}{
		"sessionId": sessionId,
		"userId":    userId,
		"used":      result.PromptInfo.Used,
		"remaining": result.PromptInfo.Remaining,
	})

	return &dto.ChatResponse{
		Response:   result.Response,
		Usage:      result.Usage,
		PromptInfo: result.PromptInfo,
	}, nil
}

func (s *evaluationService) GetSession(ctx context.Context, sessionId, userId string) (*dto.SessionDetailResponse, error) {
	session, err := s.sessions.GetByOwner(ctx, sessionId, userId)
	if err != nil {
		return nil, apperror.Internal("Failed to get session", err)
	}
	if session == nil {
		return nil, apperror.NotFound()
	}

	messages := make([]dto.MessageResponse, 0, len(session.ChatHistory))
	for _, turn := range session.ChatHistory {
		messages = append(messages, dto.MessageResponse{
			Role:      turn.Role,
			Content:   turn.Content,
			CreatedAt: turn.CreatedAt,
		})
	}

	return &dto.SessionDetailResponse{
		SessionId:    session.Id,
		UserId:       session.UserId,
		Filename:     session.CvFilename,
		NumPages:     session.NumPages,
		Sections:     dto.NewSectionsDetail(session.CvSections),
		CreatedAt:    session.CreatedAt,
		PromptInfo:   session.PromptInfo(),
		Messages:     messages,
		MessageCount: len(messages),
	}, nil
}

func (s *evaluationService) ListSessions(ctx context.Context, userId string) ([]dto.SessionSummaryResponse, error) {
	sessions, err := s.sessions.ListByOwner(ctx, userId)
	if err != nil {
		return nil, apperror.Internal("Failed to list sessions", err)
	}

	res := make([]dto.SessionSummaryResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, dto.SessionSummaryResponse{
			SessionId:  session.Id,
			UserId:     session.UserId,
			Filename:   session.CvFilename,
			NumPages:   session.NumPages,
			CreatedAt:  session.CreatedAt,
			PromptInfo: session.PromptInfo(),
		})
	}
	return res, nil
}

func (s *evaluationService) DeleteSession(ctx context.Context, sessionId, userId string) error {
	deleted, err := s.sessions.Delete(ctx, sessionId, userId)
	if err != nil {
		return apperror.Internal("Failed to delete session", err)
	}
	if !deleted {
		return apperror.NotFound()
	}

	s.publish(ctx, constant.EventSessionDeleted, map[string]interface{}{
		"sessionId": sessionId,
		"userId":    userId,
	})
	return nil
}

func (s *evaluationService) ClearSession(ctx context.Context, sessionId, userId string) (*entity.PromptInfo, error) {
	cleared, err := s.sessions.Clear(ctx, sessionId, userId)
	if err != nil {
		return nil, apperror.Internal("Failed to clear session", err)
	}
	if !cleared {
		return nil, apperror.NotFound()
	}

	info, err := s.sessions.CheckPromptLimit(ctx, sessionId)
	if err != nil {
		return nil, apperror.Internal("Failed to clear session", err)
	}

	s.publish(ctx, constant.EventSessionCleared, map[string]interface{}{
		"sessionId": sessionId,
		"userId":    userId,
	})
	return &info, nil
}

// requireOwner answers "not found" for both unknown and foreign sessions.
func (s *evaluationService) requireOwner(ctx context.Context, sessionId, userId string) error {
	session, err := s.sessions.GetByOwner(ctx, sessionId, userId)
	if err != nil {
		return apperror.Internal("Failed to get session", err)
	}
	if session == nil {
		return apperror.NotFound()
	}
	return nil
}

func (s *evaluationService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
}

func toEntitySections(s cvparser.Sections) entity.CvSections {
	return entity.CvSections{
		Contact:    s.Contact,
		Summary:    s.Summary,
		Experience: s.Experience,
		Education:  s.Education,
		Skills:     s.Skills,
	}
}
