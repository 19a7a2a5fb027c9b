package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sqxedit/internal/archive"
	"sqxedit/internal/checksum"
	"sqxedit/internal/faults"
	"sqxedit/internal/history"
	"sqxedit/internal/logging"
	"sqxedit/internal/metrics"
	"sqxedit/internal/sampledoc"
	"sqxedit/internal/sampletable"
	"sqxedit/internal/scratch"
)

// Entry names of the sample list and its checksum inside a container.
const (
	DocumentEntry = "SampleListPart/SampleListPart"
	SidecarEntry  = "SampleListPart/SampleListPart.chk"
)

// Recorder journals finalize attempts.
type Recorder interface {
	Record(ctx context.Context, entry *history.Entry) error
}

// Options configures a session. Every collaborator is optional.
type Options struct {
	Codec    sampledoc.EncodeOptions
	Pack     archive.PackOptions
	Scratch  scratch.Backend
	Recorder Recorder
	Metrics  *metrics.Collector
	Logger   *slog.Logger

	// Source and Destination label the archive in logs and history.
	Source      string
	Destination string
	// Action names the edit for history, e.g. "set" or "import".
	Action string
}

// Result is the outcome of a successful Finalize.
type Result struct {
	Archive  []byte
	Document []byte
	Digest   checksum.Sum
	// Changed reports whether Document differs from the opened document.
	Changed bool
	Rows    int
}

// Session is an explicit unit of work over one container.
type Session struct {
	id     string
	opts   Options
	logger *slog.Logger

	archive  *archive.Archive
	document *sampledoc.Document
	input    []byte
	sidecar  SidecarReport
	table    *sampletable.Table
	result   *Result
}

// Open parses data and decodes its sample list.
func Open(ctx context.Context, data []byte, opts Options) (*Session, error) {
	ctx = logging.WithArchive(ctx, opts.Source)
	s, err := open(ctx, data, opts)
	opts.Metrics.ObserveSession(metrics.OperationOpen, err)
	if err != nil {
		logger := logging.WithContext(ctx, logging.NewComponentLogger(baseLogger(opts), "session"))
		logging.WarnWithContext(logger, "open failed", "session_open_failed",
			logging.String("kind", faults.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the file is a sequence container"),
		)
		return nil, err
	}
	return s, nil
}

func open(ctx context.Context, data []byte, opts Options) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := archive.Open(data)
	if err != nil {
		return nil, err
	}
	if err := archive.RequireEntries(a, DocumentEntry, SidecarEntry); err != nil {
		return nil, err
	}
	input, err := a.Get(DocumentEntry)
	if err != nil {
		return nil, faults.Wrap(faults.ErrCorruptArchive, "session", "open", "read sample list", err)
	}
	doc, err := sampledoc.Decode(input)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Session{
		id:       id,
		opts:     opts,
		logger:   logging.NewSessionLogger(logging.WithContext(ctx, logging.NewComponentLogger(baseLogger(opts), "session")), id),
		archive:  a,
		document: doc,
		input:    input,
		table:    sampletable.FromRecords(doc.Records()),
	}
	s.sidecar = inspectSidecar(a, input)

	s.logger.Info("archive opened",
		logging.String(logging.FieldEventType, "session_opened"),
		logging.Int("entries", a.Len()),
		logging.Int("samples", s.table.Len()),
		logging.Int("opaque_items", len(doc.Opaques())),
		logging.String("sidecar", s.sidecar.Status.String()),
	)
	if s.sidecar.Status != SidecarValid {
		logging.WarnWithContext(s.logger, "stored checksum does not match sample list", "sidecar_mismatch",
			logging.String("stored", s.sidecar.Stored),
			logging.String("computed", s.sidecar.Computed),
			logging.String(logging.FieldImpact, "the instrument may reject the sequence until it is saved again"),
		)
	}
	return s, nil
}

// NewBlank starts a session over a fresh container holding an empty
// sample list and its matching sidecar.
func NewBlank(ctx context.Context, opts Options) (*Session, error) {
	doc := sampledoc.NewDocument()
	body, err := sampledoc.Encode(doc, opts.Codec)
	if err != nil {
		return nil, err
	}
	a := archive.New()
	a.Replace(DocumentEntry, body)
	a.Replace(SidecarEntry, checksum.Sidecar(checksum.Digest(body)))
	packed, err := archive.Pack(a, opts.Pack)
	if err != nil {
		return nil, faults.Wrap(faults.ErrEncodeFailure, "session", "new", "pack blank container", err)
	}
	return Open(ctx, packed, opts)
}

func baseLogger(opts Options) *slog.Logger {
	if opts.Logger == nil {
		return logging.NewNop()
	}
	return opts.Logger
}

// ID is the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Context returns ctx carrying the session id and source archive, for
// callers that log on the session's behalf.
func (s *Session) Context(ctx context.Context) context.Context {
	return logging.WithSessionID(logging.WithArchive(ctx, s.opts.Source), s.id)
}

// Table returns a copy of the current table state.
func (s *Session) Table() *sampletable.Table { return s.table.Clone() }

// Records converts the current table state to sample records.
func (s *Session) Records() []sampledoc.Record { return s.table.Records() }

// Document returns the decoded sample list as opened.
func (s *Session) Document() *sampledoc.Document { return s.document }

// InputDocument returns the sample-list bytes as opened.
func (s *Session) InputDocument() []byte { return append([]byte(nil), s.input...) }

// Entries lists the opened archive's entries.
func (s *Session) Entries() []archive.Info { return s.archive.Entries() }

// Sidecar reports whether the opened sidecar matched its document.
func (s *Session) Sidecar() SidecarReport { return s.sidecar }

// Result returns the most recent successful Finalize result, or nil.
func (s *Session) Result() *Result { return s.result }

// Replace stores t as the new table state. The records must encode; when
// they do not the current state is kept and ErrInvalidEdit is returned.
func (s *Session) Replace(t *sampletable.Table) error {
	if t == nil {
		return faults.Wrap(faults.ErrInvalidEdit, "session", "replace", "nil table", nil)
	}
	next := t.Clone()
	if _, err := sampledoc.EncodeRecords(s.document, next.Records(), s.opts.Codec); err != nil {
		return faults.Wrap(faults.ErrInvalidEdit, "session", "replace", "table cannot be encoded", err)
	}
	s.table = next
	s.logger.Debug("table replaced", logging.Int("rows", next.Len()))
	return nil
}

// Edit applies fn to a copy of the table and replaces the state when fn
// succeeds.
func (s *Session) Edit(fn func(*sampletable.Table) error) error {
	draft := s.table.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	return s.Replace(draft)
}

// Finalize serializes the current state into a new container.
func (s *Session) Finalize(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, err := s.finalize(ctx)
	s.opts.Metrics.ObserveSession(metrics.OperationFinalize, err)
	s.record(ctx, result, err)
	if err != nil {
		logging.ErrorWithContext(s.logger, "finalize failed", "session_finalize_failed",
			logging.String("kind", faults.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no archive was written"),
		)
		return nil, err
	}
	elapsed := time.Since(start)
	s.opts.Metrics.ObserveFinalize(elapsed, result.Rows, result.Changed)
	s.result = result
	s.logger.Info("archive finalized",
		logging.String(logging.FieldEventType, "session_finalized"),
		logging.Int("rows", result.Rows),
		logging.Bool("changed", result.Changed),
		logging.String("digest", result.Digest.Hex()),
		logging.Int("bytes", len(result.Archive)),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *Session) finalize(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := s.table.Records()
	body, err := sampledoc.EncodeRecords(s.document, records, s.opts.Codec)
	if err != nil {
		if errors.Is(err, faults.ErrEncodeFailure) {
			return nil, err
		}
		return nil, faults.Wrap(faults.ErrEncodeFailure, "session", "finalize", "encode sample list", err)
	}

	sum := checksum.Digest(body)
	sidecar := checksum.Sidecar(sum)
	if err := checksum.Verify(body, sidecar); err != nil {
		return nil, faults.Wrap(faults.ErrChecksumIO, "session", "finalize", "sidecar read-back", err)
	}

	out, err := s.assemble(ctx, body, sidecar)
	if err != nil {
		return nil, err
	}
	packed, err := archive.Pack(out, s.opts.Pack)
	if err != nil {
		return nil, faults.Wrap(faults.ErrEncodeFailure, "session", "finalize", "pack archive", err)
	}

	return &Result{
		Archive:  packed,
		Document: body,
		Digest:   sum,
		Changed:  !bytes.Equal(body, s.input),
		Rows:     len(records),
	}, nil
}

// assemble builds the output entry map on a copy of the snapshot, going
// through a scratch workspace when one is configured.
func (s *Session) assemble(ctx context.Context, body, sidecar []byte) (*archive.Archive, error) {
	if s.opts.Scratch == nil {
		out := s.archive.Clone()
		out.Replace(DocumentEntry, body)
		out.Replace(SidecarEntry, sidecar)
		return out, nil
	}

	ws, release, err := s.opts.Scratch.Acquire(ctx)
	if err != nil {
		return nil, faults.Wrap(faults.ErrChecksumIO, "session", "finalize", "acquire workspace", err)
	}
	defer release()

	if err := ws.Extract(ctx, s.archive); err != nil {
		return nil, faults.Wrap(faults.ErrChecksumIO, "session", "finalize", "extract to workspace", err)
	}
	if err := ws.WriteFile(DocumentEntry, body); err != nil {
		return nil, faults.Wrap(faults.ErrChecksumIO, "session", "finalize", "write sample list", err)
	}
	if err := ws.WriteFile(SidecarEntry, sidecar); err != nil {
		return nil, faults.Wrap(faults.ErrChecksumIO, "session", "finalize", "write sidecar", err)
	}
	out, err := ws.Collect(ctx, s.archive)
	if err != nil {
		return nil, faults.Wrap(faults.ErrChecksumIO, "session", "finalize", "collect workspace", err)
	}
	// Both entries are always rewritten so output does not depend on the backend.
	out.Replace(DocumentEntry, body)
	out.Replace(SidecarEntry, sidecar)
	return out, nil
}

func (s *Session) record(ctx context.Context, result *Result, err error) {
	if s.opts.Recorder == nil {
		return
	}
	entry := &history.Entry{
		SessionID:      s.id,
		Action:         s.opts.Action,
		Source:         s.opts.Source,
		Destination:    s.opts.Destination,
		Rows:           s.table.Len(),
		PreviousDigest: checksum.Digest(s.input).Hex(),
		Outcome:        faults.Kind(err),
	}
	if entry.Action == "" {
		entry.Action = "finalize"
	}
	if err != nil {
		entry.Message = err.Error()
	} else {
		entry.Changed = result.Changed
		entry.Digest = result.Digest.Hex()
	}
	if recErr := s.opts.Recorder.Record(ctx, entry); recErr != nil {
		logging.WarnWithContext(s.logger, "history not recorded", "history_write_failed",
			logging.Error(recErr),
			logging.String(logging.FieldImpact, "edit succeeded but is missing from history"),
		)
	}
}
