package agent

import "fmt"

// 兜底文案：生成服务失败时对候选人可见的固定回复。
// 对话流程绝不因一次生成失败而中断，这是本模块的核心失败处理契约。
const (
	// FallbackGreeting 开场生成失败时的固定开场白
	FallbackGreeting = "Hello, I'll be your interviewer today. Let's start by discussing your experience. Could you tell me about your background related to this position?"

	// FallbackFollowUp 追问生成失败时的固定过渡语
	FallbackFollowUp = "Thank you for that response. Let's move on to the next question about your experience with this type of role."

	// DefaultFeedback 总结生成失败时的默认反馈
	DefaultFeedback = "Thank you for participating in this interview."
)

// 发给模型的瞬时指令，不进入对话历史。
const (
	// followUpInstruction 常规轮次：基于候选人回答提一个追问
	followUpInstruction = "Based on the candidate's response, ask a relevant follow-up question."

	// concludingInstruction 终结轮次：收尾提问并感谢候选人
	concludingInstruction = "This is the final question. Wrap up the interview with a concluding question, then thank the candidate."

	// summaryAnalystPrompt 总结阶段的系统角色
	summaryAnalystPrompt = "You are an expert HR analyzer providing detailed interview insights."
)

// buildSystemPrompt 根据岗位信息生成面试官的系统提示
func buildSystemPrompt(jobTitle, companyName, jobDescription string, maxQuestions int) string {
	jobDescriptionText := ""
	if jobDescription != "" {
		jobDescriptionText = fmt.Sprintf("\nJob Description: %s", jobDescription)
	}

	return fmt.Sprintf(`You are an AI-powered HR interviewer conducting a job interview for a %s position at %s.
%s

Your task is to:
1. Ask relevant, professional interview questions focused on this specific role
2. Follow up on candidate responses to dig deeper into their experience and skills
3. Assess technical knowledge, problem-solving abilities, and cultural fit
4. Be conversational but professional, like a real HR interviewer
5. Keep questions concise and clear

This interview should have approximately %d questions total.
DO NOT mention that you're an AI unless directly asked.
DO NOT ask multiple questions at once - ask one clear question at a time.
DO NOT provide interview feedback during the conversation.`, jobTitle, companyName, jobDescriptionText, maxQuestions)
}

// buildOpeningInstruction 开场指令：自我介绍并提出第一个问题
func buildOpeningInstruction(jobTitle, companyName string) string {
	return fmt.Sprintf("Start the interview for a %s position at %s. Introduce yourself briefly as an AI interviewer and ask your first question.", jobTitle, companyName)
}

// buildSummaryPrompt 总结指令：要求模型返回 summary/evaluation/feedback 三个键的JSON
func buildSummaryPrompt(jobTitle, conversationText string) string {
	return fmt.Sprintf(`Based on the following interview for a %s position, please provide:

1. A JSON summary with key points discussed
2. A JSON evaluation with scores (1-10) on:
   - Technical skills
   - Communication
   - Culture fit
   - Problem-solving
   - Overall impression
3. A brief paragraph of constructive feedback for the candidate

Format your response as valid JSON with three keys: "summary", "evaluation", and "feedback".

INTERVIEW TRANSCRIPT:
%s`, jobTitle, conversationText)
}
