package models

import (
	"time"

	"gorm.io/datatypes"
)

// 会话状态
const (
	SessionStatusActive    = "ACTIVE"
	SessionStatusCompleted = "COMPLETED"
)

// InterviewSession 面试会话的持久化记录。
// 运行时状态（代理、对话历史）在内存里，这张表只做落地留痕。
type InterviewSession struct {
	SessionID       string     `gorm:"type:varchar(36);primaryKey"`
	JobTitle        string     `gorm:"type:varchar(255);not null"`
	CompanyName     string     `gorm:"type:varchar(255)"`
	JobDescription  string     `gorm:"type:text"`
	DurationMinutes int        `gorm:"not null"`
	MaxQuestions    int        `gorm:"not null"`
	Status          string     `gorm:"type:varchar(20);default:'ACTIVE';not null;index"`
	CreatedAt       time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	CompletedAt     *time.Time `gorm:"type:datetime(6);null"`
}

// TableName 指定 InterviewSession 的表名
func (InterviewSession) TableName() string {
	return "interview_sessions"
}

// InterviewReport 面试结束后生成的结构化报告。
// summary/evaluation 是模型输出的自由形态JSON，用JSON列存储。
type InterviewReport struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	SessionID  string         `gorm:"type:varchar(36);not null;uniqueIndex"`
	JobTitle   string         `gorm:"type:varchar(255);not null"`
	Summary    datatypes.JSON `gorm:"type:json"`
	Evaluation datatypes.JSON `gorm:"type:json"`
	Feedback   string         `gorm:"type:text"`
	ArchiveURI string         `gorm:"type:varchar(512)"` // MinIO归档对象路径，归档失败时为空
	CreatedAt  time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

// TableName 指定 InterviewReport 的表名
func (InterviewReport) TableName() string {
	return "interview_reports"
}

// OutboxMessage 发件箱消息：与业务写入同事务落库，由中继异步发布。
type OutboxMessage struct {
	ID               uint64     `gorm:"primaryKey;autoIncrement"`
	AggregateID      string     `gorm:"type:varchar(36);not null;index"`
	EventType        string     `gorm:"type:varchar(255);not null"`
	Payload          string     `gorm:"type:json;not null"`
	TargetExchange   string     `gorm:"type:varchar(255);not null"`
	TargetRoutingKey string     `gorm:"type:varchar(255);not null"`
	Status           string     `gorm:"type:varchar(20);default:'PENDING';not null;index:idx_outbox_status_created_at"`
	RetryCount       int        `gorm:"default:0"`
	CreatedAt        time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_outbox_status_created_at,sort:asc"`
	ProcessedAt      *time.Time `gorm:"type:datetime(6);null"`
	ErrorMessage     string     `gorm:"type:text"`
}

// TableName 指定 OutboxMessage 的表名
func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
