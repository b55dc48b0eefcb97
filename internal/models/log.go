package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelFatal   LogLevel = "FATAL"
)

type RunStatus string

const (
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusEmpty      RunStatus = "empty"
	RunStatusFailed     RunStatus = "failed"
)

// JSONMap stores string fields in a jsonb column.
type JSONMap map[string]string

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *JSONMap) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("JSONMap: unsupported scan type")
	}
	out := JSONMap{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// LogFile is one analysis run over an uploaded document.
type LogFile struct {
	ID           string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Filename     string         `json:"filename" gorm:"not null"`
	Size         int64          `json:"size"`
	Compression  string         `json:"compression"`
	FormatID     string         `json:"format" gorm:"index"`
	Mode         string         `json:"mode"`
	Status       RunStatus      `json:"status" gorm:"default:'processing'"`
	Severity     string         `json:"severity"`
	EntryCount   int            `json:"entryCount" gorm:"default:0"`
	ErrorCount   int            `json:"errorCount" gorm:"default:0"`
	WarningCount int            `json:"warningCount" gorm:"default:0"`
	FailedCount  int            `json:"failedSummaries" gorm:"default:0"`
	Error        string         `json:"error,omitempty" gorm:"type:text"`
	ProcessedAt  *time.Time     `json:"processedAt"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Entries []LogEntry `json:"entries,omitempty" gorm:"foreignKey:LogFileID;constraint:OnDelete:CASCADE"`
}

// LogEntry is one normalized entry of a run. Fields is empty for raw entries.
type LogEntry struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	LogFileID string        `json:"logFileId" gorm:"not null;index;type:varchar(36)"`
	Position  int           `json:"position"`
	Kind      string        `json:"kind"`
	Timestamp *time.Time    `json:"timestamp"`
	Level     LogLevel      `json:"level" gorm:"index"`
	Message   string        `json:"message" gorm:"type:text"`
	RawData   string        `json:"rawData" gorm:"type:text"`
	Fields    JSONMap       `json:"fields" gorm:"type:jsonb"`
	Category  string        `json:"category"`
	Summary   *EntrySummary `json:"summary,omitempty" gorm:"foreignKey:LogEntryID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `json:"createdAt"`
}

// EntrySummary is the model diagnostic attached to an entry.
type EntrySummary struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	LogEntryID    uint           `json:"logEntryId" gorm:"not null;uniqueIndex"`
	Summary       string         `json:"summary" gorm:"type:text"`
	FixSuggestion string         `json:"fixSuggestion" gorm:"type:text"`
	CodeFix       string         `json:"codeFix" gorm:"type:text"`
	CodeLocation  string         `json:"codeLocation"`
	Resources     pq.StringArray `json:"resources" gorm:"type:text[]"`
	Cached        bool           `json:"cached"`
	Error         string         `json:"error,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (LogFile) TableName() string {
	return "log_files"
}

func (LogEntry) TableName() string {
	return "log_entries"
}

func (EntrySummary) TableName() string {
	return "entry_summaries"
}
