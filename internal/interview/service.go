package interview

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
	"gorm.io/datatypes"

	"ai-interviewer-go/internal/config"
	"ai-interviewer-go/internal/constants"
	"ai-interviewer-go/internal/logger"
	"ai-interviewer-go/internal/session"
	"ai-interviewer-go/internal/storage"
	"ai-interviewer-go/internal/storage/models"
	"ai-interviewer-go/internal/transcript"
	"ai-interviewer-go/internal/types"
)

// interviewStartedEvent 面试开始事件的消息体
type interviewStartedEvent struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	JobTitle  string    `json:"job_title"`
	StartedAt time.Time `json:"started_at"`
}

// interviewCompletedEvent 面试完成事件的消息体
type interviewCompletedEvent struct {
	EventID     string    `json:"event_id"`
	SessionID   string    `json:"session_id"`
	JobTitle    string    `json:"job_title"`
	CompletedAt time.Time `json:"completed_at"`
	ArchiveURI  string    `json:"archive_uri,omitempty"`
}

// Service 会话生命周期控制器：编排 start → respond* → end 全流程。
// 对外只暴露 ErrSessionNotFound 一种业务错误；生成路径上的失败
// 全部在代理层被兜底吸收，这里不会看到。
// 落库、事件、归档都是 best-effort：外部存储不可用时面试流程照常工作。
type Service struct {
	registry    *session.Registry
	transcripts transcript.Store
	store       *storage.Storage

	defaultDuration int
	maxDuration     int
}

// NewService 创建生命周期控制器。
// store 可以为 nil（纯内存模式，测试和单机部署用）。
func NewService(registry *session.Registry, transcripts transcript.Store, store *storage.Storage, interviewCfg config.InterviewConfig) *Service {
	defaultDuration := interviewCfg.DefaultDurationMinutes
	if defaultDuration <= 0 {
		defaultDuration = constants.DefaultInterviewDuration
	}
	return &Service{
		registry:        registry,
		transcripts:     transcripts,
		store:           store,
		defaultDuration: defaultDuration,
		maxDuration:     interviewCfg.MaxDurationMinutes,
	}
}

// Start 开始一场面试：创建会话、生成开场白、记录首条转写。
func (s *Service) Start(ctx context.Context, req types.StartInterviewRequest) (*types.StartInterviewResponse, error) {
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = s.defaultDuration
	}
	if s.maxDuration > 0 && duration > s.maxDuration {
		duration = s.maxDuration
	}

	sess := s.registry.Create(session.CreateConfig{
		JobTitle:        req.JobTitle,
		CompanyName:     req.CompanyName,
		JobDescription:  req.JobDescription,
		DurationMinutes: duration,
	})

	sess.Lock()
	opening := sess.Agent.Initialize(ctx)
	sess.Unlock()

	if err := s.transcripts.Append(ctx, sess.ID, transcript.NewEntry(constants.SpeakerAI, opening)); err != nil {
		logger.Error().Err(err).Str("session_id", sess.ID).Msg("记录开场白转写失败")
	}

	s.persistSessionStarted(ctx, sess)
	s.cacheSessionState(ctx, sess)

	return &types.StartInterviewResponse{
		SessionID: sess.ID,
		Message:   opening,
	}, nil
}

// Respond 处理候选人的一次输入。
// 中间转写结果（isFinal=false）只记录不触发生成，返回 nil 消息表示仅确认收到。
// 最终结果走代理生成下一问，生成调用在会话锁内串行。
func (s *Service) Respond(ctx context.Context, sessionID, text string, isFinal bool) (*types.AgentMessage, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	// 中间结果也入转写流水
	entry := transcript.Entry{
		Speaker:   constants.SpeakerCandidate,
		Text:      text,
		Timestamp: time.Now().UTC(),
		IsFinal:   isFinal,
	}
	if err := s.transcripts.Append(ctx, sessionID, entry); err != nil {
		logger.Error().Err(err).Str("session_id", sessionID).Msg("记录候选人转写失败")
	}

	if !isFinal {
		return nil, nil
	}

	sess.Lock()
	reply := sess.Agent.ProcessResponse(ctx, text)
	sess.Unlock()

	if err := s.transcripts.Append(ctx, sessionID, transcript.NewEntry(constants.SpeakerAI, reply)); err != nil {
		logger.Error().Err(err).Str("session_id", sessionID).Msg("记录面试官转写失败")
	}

	s.cacheSessionState(ctx, sess)

	return &types.AgentMessage{Text: reply, Type: "text"}, nil
}

// End 结束面试并产出最终报告。
// 报告的 transcript 字段与此刻 Transcript() 的返回完全一致。
// 会话结束后仍可查询，不做强制清退。
func (s *Service) End(ctx context.Context, sessionID string) (*types.InterviewSummary, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	summary, evaluation, feedback := sess.Agent.Summarize(ctx)
	sess.Completed = true
	sess.Unlock()

	entries, err := s.transcripts.All(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Str("session_id", sessionID).Msg("读取转写记录失败，报告中转写为空")
		entries = []transcript.Entry{}
	}

	report := &types.InterviewSummary{
		SessionID:  sessionID,
		JobTitle:   sess.JobTitle,
		Summary:    summary,
		Transcript: transcript.DTOs(entries),
		Evaluation: evaluation,
		Feedback:   feedback,
	}

	s.persistSessionEnded(ctx, sess, report)
	s.cacheSessionState(ctx, sess)

	logger.Info().Str("session_id", sessionID).Int("question_count", sess.Agent.QuestionCount()).Msg("面试结束")
	return report, nil
}

// Transcript 返回会话的全部转写记录。
// 未知会话等同于空历史，保持与存储层一致的语义。
func (s *Service) Transcript(ctx context.Context, sessionID string) ([]types.TranscriptEntryDTO, error) {
	entries, err := s.transcripts.All(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return transcript.DTOs(entries), nil
}

// ConsolidatedTranscript 返回按问题聚合后的转写视图
func (s *Service) ConsolidatedTranscript(ctx context.Context, sessionID string) (types.ConsolidatedTranscript, error) {
	entries, err := s.transcripts.All(ctx, sessionID)
	if err != nil {
		return types.ConsolidatedTranscript{}, err
	}
	return transcript.Consolidate(entries), nil
}

// SaveTranscript 外部转写服务直接上报一条记录。
// 时间戳缺省或不可解析时使用服务端当前时间。
func (s *Service) SaveTranscript(ctx context.Context, sessionID string, req types.SaveTranscriptRequest) error {
	ts := time.Now().UTC()
	if req.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, req.Timestamp); err == nil {
			ts = parsed
		} else {
			logger.Warn().Str("session_id", sessionID).Str("timestamp", req.Timestamp).Msg("上报的时间戳无法解析，使用服务端时间")
		}
	}

	return s.transcripts.Append(ctx, sessionID, transcript.Entry{
		Speaker:   req.Speaker,
		Text:      req.Text,
		Timestamp: ts,
		IsFinal:   true,
	})
}

// persistSessionStarted 落库会话记录并投递 interview.started 事件，best-effort
func (s *Service) persistSessionStarted(ctx context.Context, sess *session.Session) {
	if s.store == nil || s.store.MySQL == nil {
		return
	}

	row := &models.InterviewSession{
		SessionID:       sess.ID,
		JobTitle:        sess.JobTitle,
		CompanyName:     sess.CompanyName,
		JobDescription:  sess.JobDescription,
		DurationMinutes: sess.DurationMinutes,
		MaxQuestions:    sess.Agent.MaxQuestions(),
		Status:          models.SessionStatusActive,
		CreatedAt:       sess.CreatedAt,
	}
	if err := s.store.MySQL.SaveSession(ctx, row); err != nil {
		logger.Warn().Err(err).Str("session_id", sess.ID).Msg("会话落库失败")
		return
	}

	if event := s.buildEvent(sess.ID, constants.InterviewStartedRoutingKey, interviewStartedEvent{
		EventID:   newEventID(),
		SessionID: sess.ID,
		JobTitle:  sess.JobTitle,
		StartedAt: sess.CreatedAt,
	}); event != nil {
		if err := s.store.MySQL.EnqueueEvent(ctx, event); err != nil {
			logger.Warn().Err(err).Str("session_id", sess.ID).Msg("写入面试开始事件失败")
		}
	}
}

// persistSessionEnded 归档报告、落库、投递 interview.completed 事件，best-effort
func (s *Service) persistSessionEnded(ctx context.Context, sess *session.Session, report *types.InterviewSummary) {
	if s.store == nil {
		return
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		logger.Error().Err(err).Str("session_id", sess.ID).Msg("序列化面试报告失败")
		return
	}

	archiveURI := ""
	if s.store.MinIO != nil {
		uri, err := s.store.MinIO.ArchiveReport(ctx, sess.ID, reportJSON)
		if err != nil {
			logger.Warn().Err(err).Str("session_id", sess.ID).Msg("归档面试报告失败")
		} else {
			archiveURI = uri
		}
	}

	if s.store.MySQL == nil {
		return
	}

	now := time.Now().UTC()
	if err := s.store.MySQL.CompleteSession(ctx, sess.ID, now); err != nil {
		logger.Warn().Err(err).Str("session_id", sess.ID).Msg("更新会话完成状态失败")
	}

	summaryJSON, _ := json.Marshal(report.Summary)
	evaluationJSON, _ := json.Marshal(report.Evaluation)
	row := &models.InterviewReport{
		SessionID:  sess.ID,
		JobTitle:   sess.JobTitle,
		Summary:    datatypes.JSON(summaryJSON),
		Evaluation: datatypes.JSON(evaluationJSON),
		Feedback:   report.Feedback,
		ArchiveURI: archiveURI,
		CreatedAt:  now,
	}

	event := s.buildEvent(sess.ID, constants.InterviewEndedRoutingKey, interviewCompletedEvent{
		EventID:     newEventID(),
		SessionID:   sess.ID,
		JobTitle:    sess.JobTitle,
		CompletedAt: now,
		ArchiveURI:  archiveURI,
	})

	// 报告与事件同事务写入
	if err := s.store.MySQL.SaveReportWithEvent(ctx, row, event); err != nil {
		logger.Warn().Err(err).Str("session_id", sess.ID).Msg("面试报告落库失败")
	}
}

// buildEvent 组装一条发件箱消息，序列化失败返回 nil
func (s *Service) buildEvent(sessionID, routingKey string, payload any) *models.OutboxMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Str("session_id", sessionID).Msg("序列化面试事件失败")
		return nil
	}

	exchange := constants.InterviewEventsExchange
	if s.store != nil && s.store.RabbitMQ != nil {
		exchange = s.store.RabbitMQ.EventsExchange()
	}

	return &models.OutboxMessage{
		AggregateID:      sessionID,
		EventType:        routingKey,
		Payload:          string(data),
		TargetExchange:   exchange,
		TargetRoutingKey: routingKey,
		Status:           "PENDING",
	}
}

// cacheSessionState 把会话状态写进Redis，供外部只读查询，best-effort
func (s *Service) cacheSessionState(ctx context.Context, sess *session.Session) {
	if s.store == nil || s.store.Redis == nil {
		return
	}
	if err := s.store.Redis.SetSessionState(ctx, sess.ID, sess.Agent.State().String(), s.store.Redis.TranscriptTTL()); err != nil {
		logger.Debug().Err(err).Str("session_id", sess.ID).Msg("写入会话状态缓存失败")
	}
}

// newEventID 生成事件ID。v7 UUID 按时间有序，便于事件排查。
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}
