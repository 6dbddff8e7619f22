package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	AuditFileRead  AuditEventType = "file_read"
	AuditFileWrite AuditEventType = "file_write"
	AuditFileSkip  AuditEventType = "file_skip" // transform produced no change
	AuditFileError AuditEventType = "file_error"
)

// AuditEvent is one line of the audit trail.
type AuditEvent struct {
	Timestamp  int64          `json:"ts"` // Unix milliseconds
	Type       AuditEventType `json:"type"`
	SessionID  string         `json:"session"`
	Recipe     string         `json:"recipe,omitempty"`
	Path       string         `json:"path"`
	OldHash    string         `json:"old_hash,omitempty"`
	NewHash    string         `json:"new_hash,omitempty"`
	LinesIn    int            `json:"lines_in,omitempty"`
	LinesOut   int            `json:"lines_out,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
}

// AuditLogger appends events as JSON lines and mirrors them to the audit
// category logger.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

var (
	auditMu     sync.Mutex
	auditLogger = &AuditLogger{}
)

// InitAudit opens (or creates) the audit file. An empty path disables the
// file sink; events still reach the audit category logger.
func InitAudit(path string) error {
	auditMu.Lock()
	defer auditMu.Unlock()

	auditLogger.close()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	auditLogger = &AuditLogger{file: f, enc: json.NewEncoder(f)}
	return nil
}

// CloseAudit closes the audit file if one is open.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	auditLogger.close()
	auditLogger = &AuditLogger{}
}

// Audit returns the process-wide audit logger.
func Audit() *AuditLogger {
	auditMu.Lock()
	defer auditMu.Unlock()
	return auditLogger
}

func (a *AuditLogger) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		_ = a.file.Close()
		a.file = nil
		a.enc = nil
	}
}

// Log records an event. Missing timestamps are filled in.
func (a *AuditLogger) Log(event AuditEvent) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	Get(CategoryAudit).Infow(string(event.Type),
		"session", event.SessionID,
		"recipe", event.Recipe,
		"path", event.Path,
		"success", event.Success,
		"error", event.Error,
	)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enc == nil {
		return
	}
	if err := a.enc.Encode(event); err != nil {
		Get(CategoryAudit).Error("audit write failed: %v", err)
	}
}
