package types

// API请求/响应结构体定义。
// 字段命名与前端约定保持一致（snake_case JSON）。

// StartInterviewRequest 开始面试的请求
type StartInterviewRequest struct {
	JobTitle        string `json:"job_title"`
	CompanyName     string `json:"company_name,omitempty"`
	JobDescription  string `json:"job_description,omitempty"`
	DurationMinutes int    `json:"interview_duration,omitempty"` // 面试时长(分钟)，缺省使用配置默认值
}

// StartInterviewResponse 开始面试的响应
type StartInterviewResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"` // 面试官的开场白和第一个问题
}

// CandidateResponseRequest 候选人回答（可能是语音转写的中间结果）
type CandidateResponseRequest struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"` // false表示转写中间结果，只记录不触发生成
}

// AgentMessage 面试官消息
type AgentMessage struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"` // text, thinking, error
}

// EvaluationScore 面试评分的固定结构，各维度1-10分
type EvaluationScore struct {
	TechnicalSkills   int `json:"technical_skills"`
	Communication     int `json:"communication"`
	CultureFit        int `json:"culture_fit"`
	ProblemSolving    int `json:"problem_solving"`
	OverallImpression int `json:"overall_impression"`
}

// TranscriptEntryDTO 转写记录条目（接口边界用字符串时间戳，内部用time.Time）
type TranscriptEntryDTO struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	IsFinal   bool   `json:"is_final"`
}

// InterviewSummary 面试结束后的完整报告
type InterviewSummary struct {
	SessionID  string               `json:"session_id"`
	JobTitle   string               `json:"job_title"`
	Summary    map[string]any       `json:"summary"`
	Transcript []TranscriptEntryDTO `json:"transcript"`
	Evaluation map[string]any       `json:"evaluation"`
	Feedback   string               `json:"feedback"`
}

// SaveTranscriptRequest 外部转写服务上报的单条记录
type SaveTranscriptRequest struct {
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp,omitempty"` // 缺省使用服务端当前时间
}

// QuestionAnswer 一个问题与对应的合并回答
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ConsolidatedTranscript 按问题聚合后的转写视图
type ConsolidatedTranscript struct {
	FinalAnswer        string               `json:"final_answer"`
	RawSegments        []TranscriptEntryDTO `json:"raw_segments"`
	CompleteTranscript string               `json:"complete_transcript"`
	AnswersByQuestion  []QuestionAnswer     `json:"answers_by_question"`
}
