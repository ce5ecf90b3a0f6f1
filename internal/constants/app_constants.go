package constants

const (
	// 应用级常量
	ServiceName = "ai-interviewer-go"

	// 面试会话相关默认值
	DefaultInterviewDuration = 15 // 默认面试时长(分钟)
	MinQuestions             = 3  // 最少提问数
	MaxQuestions             = 10 // 最多提问数
	MinutesPerQuestion       = 3  // 估算每个问答回合约占用的分钟数
)

// 发言者标签。注意：合并转写时按 "ai" 做不区分大小写匹配来识别面试官，
// 其余一律按候选人处理，这是历史行为，不要泛化。
const (
	SpeakerAI        = "ai"
	SpeakerCandidate = "candidate"
)
