package dto

import (
	"strings"
	"time"

	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/pkg/llm"
)

type UploadCvRequest struct {
	UserId string `form:"userId" validate:"required,min=1,max=100"`
}

func (r *UploadCvRequest) Normalize() {
	r.UserId = strings.TrimSpace(r.UserId)
}

type ChatRequest struct {
	UserId    string `json:"userId" validate:"required,min=1,max=100"`
	SessionId string `json:"sessionId" validate:"required,uuid4"`
	Message   string `json:"message" validate:"required,min=1,max=5000"`
}

func (r *ChatRequest) Normalize() {
	r.UserId = strings.TrimSpace(r.UserId)
	r.SessionId = strings.TrimSpace(r.SessionId)
	r.Message = strings.TrimSpace(r.Message)
}

type JobMatchRequest struct {
	UserId         string `json:"userId" validate:"required,min=1,max=100"`
	SessionId      string `json:"sessionId" validate:"required,uuid4"`
	JobDescription string `json:"jobDescription" validate:"required,min=10,max=10000"`
}

func (r *JobMatchRequest) Normalize() {
	r.UserId = strings.TrimSpace(r.UserId)
	r.SessionId = strings.TrimSpace(r.SessionId)
	r.JobDescription = strings.TrimSpace(r.JobDescription)
}

type InitialEvaluationRequest struct {
	SessionId      string `params:"sessionId" validate:"required,uuid4"`
	UserId         string `json:"userId" validate:"required,min=1,max=100"`
	JobDescription string `json:"jobDescription" validate:"max=10000"`
}

func (r *InitialEvaluationRequest) Normalize() {
	r.SessionId = strings.TrimSpace(r.SessionId)
	r.UserId = strings.TrimSpace(r.UserId)
	r.JobDescription = strings.TrimSpace(r.JobDescription)
}

// SessionOwnerRequest addresses one session on behalf of its owner, from
// the path plus either the query string (GET, DELETE) or the body (clear).
type SessionOwnerRequest struct {
	SessionId string `params:"sessionId" validate:"required,uuid4"`
	UserId    string `json:"userId" query:"userId" validate:"required,min=1,max=100"`
}

func (r *SessionOwnerRequest) Normalize() {
	r.SessionId = strings.TrimSpace(r.SessionId)
	r.UserId = strings.TrimSpace(r.UserId)
}

type ListSessionsRequest struct {
	UserId string `query:"userId" validate:"required,min=1,max=100"`
}

func (r *ListSessionsRequest) Normalize() {
	r.UserId = strings.TrimSpace(r.UserId)
}

type SectionFlags struct {
	HasContact    bool `json:"hasContact"`
	HasSummary    bool `json:"hasSummary"`
	HasExperience bool `json:"hasExperience"`
	HasEducation  bool `json:"hasEducation"`
	HasSkills     bool `json:"hasSkills"`
}

func NewSectionFlags(s entity.CvSections) SectionFlags {
	return SectionFlags{
		HasContact:    s.Contact != "",
		HasSummary:    s.Summary != "",
		HasExperience: s.Experience != "",
		HasEducation:  s.Education != "",
		HasSkills:     s.Skills != "",
	}
}

type UploadCvResponse struct {
	SessionId  string            `json:"sessionId"`
	UserId     string            `json:"userId"`
	Filename   string            `json:"filename"`
	NumPages   int               `json:"numPages"`
	Sections   SectionFlags      `json:"sections"`
	PromptInfo entity.PromptInfo `json:"promptInfo"`
}

type ChatResponse struct {
	Response   string            `json:"response"`
	Usage      llm.Usage         `json:"usage"`
	PromptInfo entity.PromptInfo `json:"promptInfo"`
}

// SectionsDetail reports a section that was not found as null.
type SectionsDetail struct {
	Contact    *string `json:"contact"`
	Summary    *string `json:"summary"`
	Experience *string `json:"experience"`
	Education  *string `json:"education"`
	Skills     *string `json:"skills"`
}

func NewSectionsDetail(s entity.CvSections) SectionsDetail {
	return SectionsDetail{
		Contact:    nullable(s.Contact),
		Summary:    nullable(s.Summary),
		Experience: nullable(s.Experience),
		Education:  nullable(s.Education),
		Skills:     nullable(s.Skills),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type MessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionDetailResponse struct {
	SessionId    string            `json:"sessionId"`
	UserId       string            `json:"userId"`
	Filename     string            `json:"filename"`
	NumPages     int               `json:"numPages"`
	Sections     SectionsDetail    `json:"sections"`
	CreatedAt    time.Time         `json:"createdAt"`
	PromptInfo   entity.PromptInfo `json:"promptInfo"`
	Messages     []MessageResponse `json:"messages"`
	MessageCount int               `json:"messageCount"`
}

type SessionSummaryResponse struct {
	SessionId  string            `json:"sessionId"`
	UserId     string            `json:"userId"`
	Filename   string            `json:"filename"`
	NumPages   int               `json:"numPages"`
	CreatedAt  time.Time         `json:"createdAt"`
	PromptInfo entity.PromptInfo `json:"promptInfo"`
}

// ClearSessionResponse keeps promptInfo at the top level, beside message.
type ClearSessionResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	PromptInfo entity.PromptInfo `json:"promptInfo"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type ServiceLimits struct {
	MaxPromptsPerSession int    `json:"maxPromptsPerSession"`
	SessionTimeout       string `json:"sessionTimeout"`
	MaxFileSize          string `json:"maxFileSize"`
	Note                 string `json:"note"`
}

type PromptLimitInfo struct {
	Note    string    `json:"note"`
	Example ErrorDemo `json:"example"`
}

type ErrorDemo struct {
	Success    bool              `json:"success"`
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	PromptInfo entity.PromptInfo `json:"promptInfo"`
}

type ServiceInfoResponse struct {
	Message             string            `json:"message"`
	Version             string            `json:"version"`
	Description         string            `json:"description"`
	Limits              ServiceLimits     `json:"limits"`
	Endpoints           map[string]string `json:"endpoints"`
	Usage               map[string]string `json:"usage"`
	PromptLimitResponse PromptLimitInfo   `json:"promptLimitResponse"`
}
