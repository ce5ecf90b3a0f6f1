package transcript

import (
	"sort"
	"strings"

	"ai-interviewer-go/internal/constants"
	"ai-interviewer-go/internal/types"
)

// isAgentSpeaker 说话者归属规则：只有标签不区分大小写等于 "ai" 才算面试官，
// 其余一律按候选人处理。这个不对称匹配是既有行为，保持原样不做泛化。
func isAgentSpeaker(speaker string) bool {
	return strings.EqualFold(speaker, constants.SpeakerAI)
}

// Consolidate 把一段原始转写整理成按问题聚合的视图。
// 纯函数：相同输入总是产生相同输出，不修改入参。
//
// 规则：
//   - 空文本记录一律跳过；
//   - final_answer 取原始顺序中最后一条候选人记录的文本；
//   - raw_segments 与 complete_transcript 只含候选人记录，保持原始顺序；
//   - 问答对按时间戳字符串排序后遍历生成：面试官记录开启新问题，
//     候选人记录把文本（空格连接）累进当前问题的回答；
//     只有问题和至少一条回答都存在时才产出配对，
//     结尾处悬空的未答问题直接丢弃。
func Consolidate(entries []Entry) types.ConsolidatedTranscript {
	// 候选人片段，原始顺序
	var candidateSegments []Entry
	for _, e := range entries {
		if e.Text == "" {
			continue
		}
		if !isAgentSpeaker(e.Speaker) {
			candidateSegments = append(candidateSegments, e)
		}
	}

	finalAnswer := ""
	if len(candidateSegments) > 0 {
		finalAnswer = candidateSegments[len(candidateSegments)-1].Text
	}

	candidateTexts := make([]string, 0, len(candidateSegments))
	for _, seg := range candidateSegments {
		candidateTexts = append(candidateTexts, seg.Text)
	}

	// 按时间戳排序后构建问答对。排序键是格式化后的时间戳字符串，
	// TimestampLayout 定宽，字典序即时间序。
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Format(TimestampLayout) < sorted[j].Timestamp.Format(TimestampLayout)
	})

	answersByQuestion := []types.QuestionAnswer{}
	currentQuestion := ""
	var currentAnswers []string

	flush := func() {
		if currentQuestion != "" && len(currentAnswers) > 0 {
			answersByQuestion = append(answersByQuestion, types.QuestionAnswer{
				Question: currentQuestion,
				Answer:   strings.Join(currentAnswers, " "),
			})
		}
	}

	for _, e := range sorted {
		if e.Text == "" {
			continue
		}
		if isAgentSpeaker(e.Speaker) {
			flush()
			currentQuestion = e.Text
			currentAnswers = nil
		} else if currentQuestion != "" {
			// 问题出现之前的回答没有归属，丢弃
			currentAnswers = append(currentAnswers, e.Text)
		}
	}
	flush()

	return types.ConsolidatedTranscript{
		FinalAnswer:        finalAnswer,
		RawSegments:        DTOs(candidateSegments),
		CompleteTranscript: strings.Join(candidateTexts, " "),
		AnswersByQuestion:  answersByQuestion,
	}
}
