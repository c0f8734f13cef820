package constant

import "time"

const (
	MaxPromptsPerSession   = 10
	SessionTimeout         = 1 * time.Hour
	SessionCleanupInterval = 10 * time.Minute

	MaxUploadSize     = 10 * 1024 * 1024 // 10MB
	UploadFieldName   = "cv"
	AllowedUploadMIME = "application/pdf"

	ServiceName    = "cv-evaluator-be"
	ServiceVersion = "2.0.0"
)

// Groq chat completion settings
const (
	GroqDefaultModel     = "llama-3.3-70b-versatile"
	EvaluatorMaxTokens   = 2000
	EvaluatorTemperature = 0.7
	EvaluatorMaxAttempts = 3
	EvaluatorRetryDelay  = 2 * time.Second
)

// Lifecycle event types
const (
	EventSessionCreated  = "CV_SESSION_CREATED"
	EventPromptUsed      = "CV_PROMPT_USED"
	EventSessionCleared  = "CV_SESSION_CLEARED"
	EventSessionDeleted  = "CV_SESSION_DELETED"
	EventSessionsExpired = "CV_SESSIONS_EXPIRED"

	EventTopicSessions = "cv_sessions"
)

const (
	EvaluatorSystemPrompt = `Bạn là một chuyên gia đánh giá CV/Hồ sơ xin việc và tư vấn nghề nghiệp. Vai trò của bạn là giúp người dùng cải thiện CV và chuẩn bị cho việc ứng tuyển.

Khi đánh giá CV, bạn cần xem xét:

1. **Điểm tổng thể** (0-100): Đưa ra điểm chất lượng tổng thể
2. **Chất lượng nội dung**:
   - Độ rõ ràng và súc tích của các mô tả
   - Sử dụng động từ hành động và thành tích có thể đo lường
   - Tính liên quan của thông tin
3. **Phần kỹ năng**:
   - Mức độ phù hợp với ngành nghề mục tiêu
   - Cân bằng giữa kỹ năng chuyên môn và kỹ năng mềm
   - Các kỹ năng quan trọng còn thiếu
4. **Phần kinh nghiệm**:
   - Chức danh và thời gian rõ ràng
   - Mô tả tập trung vào thành tích
   - Sự phát triển trong sự nghiệp
5. **Học vấn**:
   - Định dạng phù hợp
   - Các chứng chỉ liên quan
6. **Tương thích ATS**:
   - Tối ưu hóa từ khóa
   - Định dạng hoạt động tốt với Hệ thống theo dõi ứng viên (ATS)
7. **Định dạng & Trình bày**:
   - Vẻ ngoài chuyên nghiệp
   - Định dạng nhất quán
   - Độ dài phù hợp

Khi người dùng đặt câu hỏi:
- Cung cấp phản hồi cụ thể và có thể thực hiện được
- Đưa ra ví dụ khi đề xuất cải thiện
- Khuyến khích nhưng thành thật về những điểm cần cải thiện
- Nếu có mô tả công việc, đánh giá mức độ phù hợp của CV với yêu cầu

Luôn trình bày câu trả lời rõ ràng với tiêu đề và gạch đầu dòng khi cần thiết.
Trả lời bằng tiếng Việt.`

	InitialEvaluationPrompt = "Vui lòng đánh giá toàn diện CV của tôi. Bao gồm điểm tổng thể, điểm mạnh, điểm yếu và các đề xuất cải thiện cụ thể."

	// %s = job description
	InitialEvaluationJobSuffix = "\n\nTôi đang ứng tuyển vào vị trí sau:\n%s\n\nVui lòng đánh giá mức độ phù hợp của CV với mô tả công việc này và những gì tôi nên nhấn mạnh hoặc cải thiện."

	// %s = job description
	JobMatchPrompt = `Vui lòng đánh giá mức độ phù hợp của CV với mô tả công việc sau.
Cung cấp:
1. Điểm phù hợp (0-100)
2. Các yêu cầu đã đáp ứng
3. Các yêu cầu còn thiếu
4. Đề xuất để điều chỉnh CV cho vị trí này

Mô tả công việc:
%s`

	NoSectionsDetected = "No structured sections detected."
)
