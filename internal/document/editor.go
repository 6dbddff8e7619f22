package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"propstrip/internal/logging"
)

// ErrStale is returned by Write when the file changed after it was read.
var ErrStale = errors.New("document changed on disk since it was read")

// WriteResult represents the result of a document write.
type WriteResult struct {
	Path     string
	OldHash  string
	NewHash  string
	LinesIn  int
	LinesOut int
}

// Editor handles document reads and writes with audit logging.
type Editor struct {
	mu sync.RWMutex

	// Audit callback for logging operations
	auditCallback func(logging.AuditEvent)

	sessionID  string
	recipe     string
	workingDir string
}

// NewEditor creates an Editor with a fresh session ID.
func NewEditor() *Editor {
	return &Editor{
		sessionID:  uuid.NewString(),
		workingDir: ".",
	}
}

// SessionID returns the session this editor reports in audit events.
func (e *Editor) SessionID() string {
	return e.sessionID
}

// SetAuditCallback sets the callback for audit events.
func (e *Editor) SetAuditCallback(callback func(logging.AuditEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auditCallback = callback
}

// SetWorkingDir sets the working directory for relative paths.
func (e *Editor) SetWorkingDir(dir string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workingDir = dir
}

// ForRecipe returns an editor sharing this one's session and callback whose
// audit events carry the recipe name.
func (e *Editor) ForRecipe(name string) *Editor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Editor{
		auditCallback: e.auditCallback,
		sessionID:     e.sessionID,
		recipe:        name,
		workingDir:    e.workingDir,
	}
}

func (e *Editor) emitAudit(event logging.AuditEvent) {
	e.mu.RLock()
	cb := e.auditCallback
	e.mu.RUnlock()

	if cb == nil {
		return
	}
	event.SessionID = e.sessionID
	event.Recipe = e.recipe
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	cb(event)
}

// ResolvePath resolves a path relative to the working directory.
func (e *Editor) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	e.mu.RLock()
	workDir := e.workingDir
	e.mu.RUnlock()
	return filepath.Join(workDir, path)
}

// Read reads a whole document. forced overrides BOM detection when set.
// Filesystem errors are returned as-is.
func (e *Editor) Read(path string, forced Encoding) (*Document, error) {
	timer := logging.StartTimer(logging.CategoryDocument, "Document read")
	defer timer.Stop()

	absPath := e.ResolvePath(path)
	logging.DocumentDebug("Reading document: %s", absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		logging.DocumentError("Document read failed: %s - %v", path, err)
		e.emitAudit(logging.AuditEvent{Type: logging.AuditFileError, Path: path, Error: err.Error(), DurationMs: timer.Elapsed().Milliseconds()})
		return nil, err
	}

	text, enc, bom, err := decode(data, forced)
	if err != nil {
		e.emitAudit(logging.AuditEvent{Type: logging.AuditFileError, Path: path, Error: err.Error(), DurationMs: timer.Elapsed().Milliseconds()})
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc := Parse(path, text)
	doc.Encoding = enc
	doc.BOM = bom
	doc.Hash = computeHash(data)

	logging.DocumentDebug("Document read completed: %s (%d lines, %s, bom=%v)", path, len(doc.Lines), enc, bom)
	e.emitAudit(logging.AuditEvent{
		Type:       logging.AuditFileRead,
		Path:       path,
		OldHash:    doc.Hash,
		LinesIn:    len(doc.Lines),
		Success:    true,
		DurationMs: timer.Elapsed().Milliseconds(),
	})
	return doc, nil
}

// Write replaces the document on disk atomically. When doc.Hash is set the
// current file must still match it, otherwise ErrStale is returned.
func (e *Editor) Write(doc *Document) (*WriteResult, error) {
	timer := logging.StartTimer(logging.CategoryDocument, "Document write")
	defer timer.Stop()

	absPath := e.ResolvePath(doc.Path)
	logging.Document("Writing document: %s (%d lines)", absPath, len(doc.Lines))

	fail := func(err error) (*WriteResult, error) {
		logging.DocumentError("Document write failed: %s - %v", doc.Path, err)
		e.emitAudit(logging.AuditEvent{Type: logging.AuditFileError, Path: doc.Path, Error: err.Error(), DurationMs: timer.Elapsed().Milliseconds()})
		return nil, err
	}

	mode := fs.FileMode(0644)
	var oldHash string
	linesIn := 0
	if current, err := os.ReadFile(absPath); err == nil {
		oldHash = computeHash(current)
		if doc.Hash != "" && oldHash != doc.Hash {
			return fail(fmt.Errorf("%s: %w", doc.Path, ErrStale))
		}
		if info, err := os.Stat(absPath); err == nil {
			mode = info.Mode().Perm()
		}
		if text, _, _, err := decode(current, doc.Encoding); err == nil {
			linesIn = len(Parse(doc.Path, text).Lines)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fail(err)
	}

	data, err := encode(doc.Text(), doc.Encoding, doc.BOM)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", doc.Path, err))
	}

	if err := writeAtomic(absPath, data, mode); err != nil {
		return fail(err)
	}

	result := &WriteResult{
		Path:     doc.Path,
		OldHash:  oldHash,
		NewHash:  computeHash(data),
		LinesIn:  linesIn,
		LinesOut: len(doc.Lines),
	}
	e.emitAudit(logging.AuditEvent{
		Type:       logging.AuditFileWrite,
		Path:       doc.Path,
		OldHash:    result.OldHash,
		NewHash:    result.NewHash,
		LinesIn:    result.LinesIn,
		LinesOut:   result.LinesOut,
		Success:    true,
		DurationMs: timer.Elapsed().Milliseconds(),
	})

	logging.DocumentDebug("Document written: %s (hash=%s)", doc.Path, result.NewHash[:16])
	return result, nil
}

// writeAtomic writes to a temp file next to path and renames it into place.
func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".propstrip-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Skip records that a document was left untouched.
func (e *Editor) Skip(doc *Document) {
	e.emitAudit(logging.AuditEvent{
		Type:    logging.AuditFileSkip,
		Path:    doc.Path,
		OldHash: doc.Hash,
		LinesIn: len(doc.Lines),
		Success: true,
	})
}
