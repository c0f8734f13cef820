package service

import (
	"context"
	"os"
	"testing"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/dto"
	"cv-evaluator-be/internal/pkg/apperror"
	"cv-evaluator-be/internal/pkg/logger"
	"cv-evaluator-be/internal/repository/memory"
	"cv-evaluator-be/pkg/cvparser/cvparsertest"
	"cv-evaluator-be/pkg/evaluator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type evaluationFixture struct {
	svc       IEvaluationService
	repo      *memory.CvSessionRepository
	provider  *fakeProvider
	publisher *recordingPublisher
	uploadDir string
}

func newEvaluationFixture(t *testing.T) *evaluationFixture {
	t.Helper()
	repo := memory.NewCvSessionRepository()
	provider := &fakeProvider{}
	publisher := &recordingPublisher{}
	uploadDir := t.TempDir()
	log := logger.NewNopLogger()

	eval := evaluator.New(repo, provider, evaluator.DefaultConfig(), log)
	return &evaluationFixture{
		svc:       NewEvaluationService(repo, eval, publisher, uploadDir, log),
		repo:      repo,
		provider:  provider,
		publisher: publisher,
		uploadDir: uploadDir,
	}
}

func samplePDF() []byte {
	return cvparsertest.BuildPDF(
		[]string{"John Doe", "Experience", "Engineer at Acme"},
		[]string{"Skills", "Java, SQL"},
	)
}

func (f *evaluationFixture) upload(t *testing.T, userId string) *dto.UploadCvResponse {
	t.Helper()
	res, err := f.svc.UploadCV(context.Background(), &dto.UploadCvRequest{UserId: userId}, fileHeader(t, "john.pdf", samplePDF()))
	require.NoError(t, err)
	return res
}

func assertUploadDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary upload files must be removed")
}

func TestUploadCV_CreatesSession(t *testing.T) {
	f := newEvaluationFixture(t)

	res := f.upload(t, "user-1")

	assert.NotEmpty(t, res.SessionId)
	assert.Equal(t, "user-1", res.UserId)
	assert.Equal(t, "john.pdf", res.Filename)
	assert.Equal(t, 2, res.NumPages)
	assert.True(t, res.Sections.HasSkills)
	assert.True(t, res.Sections.HasExperience)
	assert.False(t, res.Sections.HasEducation)
	assert.Equal(t, 0, res.PromptInfo.Used)
	assert.Equal(t, constant.MaxPromptsPerSession, res.PromptInfo.Remaining)
	assert.Equal(t, constant.MaxPromptsPerSession, res.PromptInfo.Max)

	stored, err := f.repo.Get(context.Background(), res.SessionId)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Contains(t, stored.CvText, "Java, SQL")

	assertUploadDirEmpty(t, f.uploadDir)
	assert.Equal(t, []string{constant.EventSessionCreated}, f.publisher.types())
}

func TestUploadCV_RejectsNonPDF(t *testing.T) {
	f := newEvaluationFixture(t)

	_, err := f.svc.UploadCV(context.Background(), &dto.UploadCvRequest{UserId: "user-1"},
		fileHeader(t, "cv.pdf", []byte("plain text pretending to be a pdf")))

	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidFile, apperror.KindOf(err))
	assertUploadDirEmpty(t, f.uploadDir)
	assert.Empty(t, f.publisher.types())
}

func TestUploadCV_RejectsOversizedFile(t *testing.T) {
	f := newEvaluationFixture(t)
	header := fileHeader(t, "cv.pdf", samplePDF())
	header.Size = constant.MaxUploadSize + 1

	_, err := f.svc.UploadCV(context.Background(), &dto.UploadCvRequest{UserId: "user-1"}, header)

	assert.Equal(t, apperror.KindFileTooLarge, apperror.KindOf(err))
}

func TestUploadCV_UnreadablePDF(t *testing.T) {
	f := newEvaluationFixture(t)

	_, err := f.svc.UploadCV(context.Background(), &dto.UploadCvRequest{UserId: "user-1"},
		fileHeader(t, "cv.pdf", []byte("%PDF-1.4\nbroken")))

	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidFile, apperror.KindOf(err))
	assertUploadDirEmpty(t, f.uploadDir)
}

func TestChat_ForeignOwnerIsNotFound(t *testing.T) {
	f := newEvaluationFixture(t)
	up := f.upload(t, "user-1")

	_, err := f.svc.Chat(context.Background(), &dto.ChatRequest{
		UserId: "user-2", SessionId: up.SessionId, Message: "hi",
	})

	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 0, f.provider.calls)
}

func TestChat_ReturnsReplyAndPublishes(t *testing.T) {
	f := newEvaluationFixture(t)
	up := f.upload(t, "user-1")

	res, err := f.svc.Chat(context.Background(), &dto.ChatRequest{
		UserId: "user-1", SessionId: up.SessionId, Message: "Đánh giá CV của tôi",
	})
	require.NoError(t, err)

	assert.Equal(t, "Điểm tổng thể: 80/100", res.Response)
	assert.Equal(t, 60, res.Usage.TotalTokens)
	assert.Equal(t, 1, res.PromptInfo.Used)
	assert.Equal(t, 9, res.PromptInfo.Remaining)
	assert.Equal(t, []string{constant.EventSessionCreated, constant.EventPromptUsed}, f.publisher.types())
}

func TestEvaluateJobAndInitialEvaluation_ConsumePrompts(t *testing.T) {
	f := newEvaluationFixture(t)
	up := f.upload(t, "user-1")
	ctx := context.Background()

	_, err := f.svc.EvaluateJob(ctx, &dto.JobMatchRequest{
		UserId: "user-1", SessionId: up.SessionId, JobDescription: "Backend engineer, Go and SQL",
	})
	require.NoError(t, err)

	res, err := f.svc.InitialEvaluation(ctx, &dto.InitialEvaluationRequest{
		UserId: "user-1", SessionId: up.SessionId,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.PromptInfo.Used)

	detail, err := f.svc.GetSession(ctx, up.SessionId, "user-1")
	require.NoError(t, err)
	require.Len(t, detail.Messages, 4)
	assert.Contains(t, detail.Messages[0].Content, "Backend engineer, Go and SQL")
	assert.Equal(t, constant.InitialEvaluationPrompt, detail.Messages[2].Content)
}

func TestGetSession_ReportsMissingSectionsAsNull(t *testing.T) {
	f := newEvaluationFixture(t)
	up := f.upload(t, "user-1")

	detail, err := f.svc.GetSession(context.Background(), up.SessionId, "user-1")
	require.NoError(t, err)

	require.NotNil(t, detail.Sections.Skills)
	assert.Equal(t, "Java, SQL", *detail.Sections.Skills)
	assert.Nil(t, detail.Sections.Education)
	assert.Empty(t, detail.Messages)
	assert.Equal(t, 0, detail.MessageCount)

	_, err = f.svc.GetSession(context.Background(), up.SessionId, "user-2")
	assert.True(t, apperror.IsNotFound(err))
}

func TestListSessions_OnlyOwn(t *testing.T) {
	f := newEvaluationFixture(t)
	f.upload(t, "user-1")
	f.upload(t, "user-1")
	f.upload(t, "user-2")

	list, err := f.svc.ListSessions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.ListSessions(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDeleteSession(t *testing.T) {
	f := newEvaluationFixture(t)
	up := f.upload(t, "user-1")
	ctx := context.Background()

	err := f.svc.DeleteSession(ctx, up.SessionId, "user-2")
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, f.svc.DeleteSession(ctx, up.SessionId, "user-1"))

	err = f.svc.DeleteSession(ctx, up.SessionId, "user-1")
	assert.True(t, apperror.IsNotFound(err))
	assert.Contains(t, f.publisher.types(), constant.EventSessionDeleted)
}

func TestClearSession_ResetsQuota(t *testing.T) {
	f := newEvaluationFixture(t)
	up := f.upload(t, "user-1")
	ctx := context.Background()

	for i := 0; i < constant.MaxPromptsPerSession; i++ {
		_, err := f.svc.Chat(ctx, &dto.ChatRequest{UserId: "user-1", SessionId: up.SessionId, Message: "next"})
		require.NoError(t, err)
	}
	_, err := f.svc.Chat(ctx, &dto.ChatRequest{UserId: "user-1", SessionId: up.SessionId, Message: "one more"})
	require.True(t, apperror.IsQuotaExhausted(err))

	info, err := f.svc.ClearSession(ctx, up.SessionId, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Used)
	assert.Equal(t, constant.MaxPromptsPerSession, info.Remaining)

	_, err = f.svc.Chat(ctx, &dto.ChatRequest{UserId: "user-1", SessionId: up.SessionId, Message: "again"})
	assert.NoError(t, err)

	_, err = f.svc.ClearSession(ctx, up.SessionId, "user-2")
	assert.True(t, apperror.IsNotFound(err))
}
