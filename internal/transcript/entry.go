package transcript

import (
	"time"

	"ai-interviewer-go/internal/types"
)

// TimestampLayout 接口边界上的时间戳格式。
// 定宽纳秒格式，保证字符串字典序与时间序一致。
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry 一条带时间戳的转写记录。
// 内部用 time.Time，只在接口边界格式化为字符串。
type Entry struct {
	Speaker   string    `json:"speaker"` // 说话者标签，"ai" 表示面试官
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsFinal   bool      `json:"is_final"`
}

// NewEntry 以当前时间创建一条最终记录
func NewEntry(speaker, text string) Entry {
	return Entry{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
		IsFinal:   true,
	}
}

// DTO 转换为接口边界的表示
func (e Entry) DTO() types.TranscriptEntryDTO {
	return types.TranscriptEntryDTO{
		Speaker:   e.Speaker,
		Text:      e.Text,
		Timestamp: e.Timestamp.Format(TimestampLayout),
		IsFinal:   e.IsFinal,
	}
}

// DTOs 批量转换
func DTOs(entries []Entry) []types.TranscriptEntryDTO {
	out := make([]types.TranscriptEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.DTO())
	}
	return out
}
