package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// InterviewModulePrefix 面试模块
	InterviewModulePrefix = "interview"

	// EntityTranscript 转写记录实体
	EntityTranscript = "transcript"
	// EntitySession 面试会话实体
	EntitySession = "session"

	// KeyInterviewTranscript 某个会话的转写记录 (LIST，元素为JSON)
	// 格式: app:interview:transcript:{sessionID}
	KeyInterviewTranscript = AppPrefix + ":" + InterviewModulePrefix + ":" + EntityTranscript + ":%s"

	// KeyInterviewSessionState 会话状态缓存 (STRING，JSON快照)
	// 格式: app:interview:session:{sessionID}
	KeyInterviewSessionState = AppPrefix + ":" + InterviewModulePrefix + ":" + EntitySession + ":%s"
)

// RabbitMQ 交换机与路由键
const (
	InterviewEventsExchange    = "interview.events.exchange"
	InterviewStartedRoutingKey = "interview.started"
	InterviewEndedRoutingKey   = "interview.completed"
)
