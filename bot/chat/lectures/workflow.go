package lectures

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"LectureBot/bot/chat"
	"LectureBot/bot/chat/picker"
	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
)

const (
	UploadWorkflowID   chat.WorkflowID = "upload_pdf"
	DownloadWorkflowID chat.WorkflowID = "download_pdf"
)

const (
	StepType    chat.StepID = "pick_type"
	StepNumber  chat.StepID = "lecture_number"
	StepFile    chat.StepID = "await_file"
	StepLecture chat.StepID = "pick_lecture"
)

const (
	CmdUpload   = "!اضافة_pdf"
	CmdDownload = "!تحميل"
)

const (
	KeyType          = "pdfType"
	KeyLectureNumber = "lectureNumber"
)

// Store is the persistence the lecture flows need.
type Store interface {
	picker.Taxonomy
	SaveLecture(ctx context.Context, l *entity.Lecture) error
	GetLecture(ctx context.Context, id string) (*entity.Lecture, error)
	ListLectures(ctx context.Context, filter entity.LectureFilter) ([]entity.Lecture, error)
	SaveArchiveEntry(ctx context.Context, a *entity.ArchiveEntry) error
}

// Blobs keeps the PDF contents.
type Blobs interface {
	Put(ctx context.Context, name string, data []byte, meta entity.FileMetadata) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
}

// Listener is told about stored lectures.
type Listener interface {
	LectureUploaded(l entity.Lecture)
}

// Options names the chats uploads are copied to; empty ids keep the uploader's message as the reference.
type Options struct {
	StorageChatID string
	ArchiveChatID string
}

type Module struct {
	store    Store
	blobs    Blobs
	opts     Options
	listener Listener
	log      *slog.Logger
}

func New(store Store, blobs Blobs, opts Options, log *slog.Logger) *Module {
	return &Module{
		store: store,
		blobs: blobs,
		opts:  opts,
		log:   log.With(sl.Module("lectures")),
	}
}

func (m *Module) SetListener(l Listener) {
	m.listener = l
}

func typeMenu() *chat.MenuStep {
	return &chat.MenuStep{
		StepID: StepType,
		Prompt: MsgChooseType,
		Items: []chat.MenuItem{
			{Text: entity.LectureTypeLecture.Title(), Value: string(entity.LectureTypeLecture), Next: picker.StepID(entity.KindSection)},
			{Text: entity.LectureTypeSummary.Title(), Value: string(entity.LectureTypeSummary), Next: picker.StepID(entity.KindSection)},
		},
		Key: KeyType,
	}
}

// UploadFlow: type, five taxonomy pickers, lecture number, PDF file.
func (m *Module) UploadFlow() *chat.Flow {
	flow := chat.NewFlow(UploadWorkflowID, StepType)
	first := picker.Chain(flow, m.store, entity.TaxonomyKinds, StepNumber)
	flow.Add(typeMenu(), first)
	flow.Add(&chat.TextStep{
		StepID:    StepNumber,
		Prompt:    MsgEnterNumber,
		Key:       KeyLectureNumber,
		Next:      StepFile,
		Normalize: normalizeNumber,
	}, StepFile)
	flow.Add(&chat.FileStep{
		StepID:   StepFile,
		Prompt:   MsgSendPDF,
		MimeType: "application/pdf",
		Invalid:  MsgNotPDF,
		OnFile:   m.storeUpload,
	})
	return flow
}

// DownloadFlow: type, five taxonomy pickers, then one of the matching lectures.
func (m *Module) DownloadFlow() *chat.Flow {
	flow := chat.NewFlow(DownloadWorkflowID, StepType)
	first := picker.Chain(flow, m.store, entity.TaxonomyKinds, StepLecture)
	flow.Add(typeMenu(), first)
	flow.Add(&chat.SelectStep{
		StepID:   StepLecture,
		Prompt:   MsgChooseLecture,
		Empty:    MsgNoMatchingLectures,
		Source:   m.matchingLectures,
		OnSelect: m.sendLecture,
	})
	return flow
}

// Register adds the flows and their entry commands to the engine.
func (m *Module) Register(engine *chat.ChatEngine) error {
	for _, flow := range []*chat.Flow{m.UploadFlow(), m.DownloadFlow()} {
		if err := engine.RegisterWorkflow(flow); err != nil {
			return err
		}
	}
	engine.Commands().Register(chat.Command{
		Name:        CmdUpload,
		Description: "رفع محاضرة أو ملخص PDF",
		Handler:     m.startUpload(engine),
	})
	engine.Commands().Register(chat.Command{
		Name:        CmdDownload,
		Description: "تحميل محاضرة أو ملخص",
		Handler:     m.startDownload(engine),
	})
	return nil
}

func (m *Module) startUpload(engine *chat.ChatEngine) chat.CommandFunc {
	return func(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, _ string) error {
		missing, err := picker.Missing(ctx, m.store, entity.TaxonomyKinds)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			titles := make([]string, len(missing))
			for i, kind := range missing {
				titles[i] = kind.Title()
			}
			return ms.SendText(ctx, msg.ChatID, fmt.Sprintf(MsgNotConfigured, strings.Join(titles, "، ")))
		}
		return engine.StartWorkflow(ctx, ms, msg.ActorID(), msg.ChatID, UploadWorkflowID, nil)
	}
}

func (m *Module) startDownload(engine *chat.ChatEngine) chat.CommandFunc {
	return func(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, _ string) error {
		list, err := m.store.ListLectures(ctx, entity.LectureFilter{})
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return ms.SendText(ctx, msg.ChatID, MsgNoLectures)
		}
		return engine.StartWorkflow(ctx, ms, msg.ActorID(), msg.ChatID, DownloadWorkflowID, nil)
	}
}

func normalizeNumber(text string) (string, bool) {
	text = strings.TrimSpace(chat.NormalizeDigits(text))
	return text, text != ""
}
