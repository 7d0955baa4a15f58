package admin

import (
	"context"
	"log/slog"

	"LectureBot/bot/chat"
	"LectureBot/bot/chat/taxonomy"
	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
)

const (
	WorkflowID chat.WorkflowID = "admin"
	CmdAdmin                   = "!إدارة"
)

const (
	StepMenu          chat.StepID = "menu"
	StepPhone         chat.StepID = "member_phone"
	StepGroup         chat.StepID = "member_group"
	StepApply         chat.StepID = "member_apply"
	StepTaxonomyKind  chat.StepID = "taxonomy_kind"
	StepOpenTaxonomy  chat.StepID = "taxonomy_open"
	StepPickLecture   chat.StepID = "lecture_pick"
	StepConfirmDelete chat.StepID = "lecture_confirm"
	StepDeleteLecture chat.StepID = "lecture_delete"
	StepExport        chat.StepID = "lectures_export"
	StepStatsGroup    chat.StepID = "stats_group"
	StepStats         chat.StepID = "stats_show"
	StepBlacklistMenu chat.StepID = "blacklist_menu"
	StepBlacklistShow chat.StepID = "blacklist_show"
	StepBlacklistUser chat.StepID = "blacklist_user"
	StepBlacklistSave chat.StepID = "blacklist_apply"
)

const (
	keyAction      = "action"
	keyPhone       = "phone"
	keyGroup       = "groupId"
	keyKind        = "kind"
	keyLecture     = "lectureId"
	keyLectureName = "lectureName"
	keyConfirm     = "confirm"
	keyListAction  = "listAction"
)

// Member actions stored under keyAction.
const (
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionPromote = "promote"
	ActionDemote  = "demote"
)

// GroupManager changes WhatsApp group membership. Phones are "+" prefixed digits.
type GroupManager interface {
	AddParticipant(ctx context.Context, groupID, phone string) error
	RemoveParticipant(ctx context.Context, groupID, phone string) error
	PromoteParticipant(ctx context.Context, groupID, phone string) error
	DemoteParticipant(ctx context.Context, groupID, phone string) error
}

type Store interface {
	GetLecture(ctx context.Context, id string) (*entity.Lecture, error)
	ListLectures(ctx context.Context, filter entity.LectureFilter) ([]entity.Lecture, error)
	DeleteLecture(ctx context.Context, id string) error
	GroupStats(ctx context.Context, groupID string) (*entity.GroupStats, error)
	AddToBlacklist(ctx context.Context, userID string) error
	RemoveFromBlacklist(ctx context.Context, userID string) error
	ListBlacklist(ctx context.Context) ([]string, error)
}

// BlobRemover drops the stored copy of a deleted lecture.
type BlobRemover interface {
	Delete(ctx context.Context, id string) error
}

// Exporter renders the lectures table.
type Exporter interface {
	LecturesTable(lectures []entity.Lecture) ([]byte, error)
}

type Module struct {
	groups   GroupManager
	store    Store
	blobs    BlobRemover
	exporter Exporter
	log      *slog.Logger
}

func New(groups GroupManager, store Store, blobs BlobRemover, exporter Exporter, log *slog.Logger) *Module {
	return &Module{
		groups:   groups,
		store:    store,
		blobs:    blobs,
		exporter: exporter,
		log:      log.With(sl.Module("admin")),
	}
}

func (m *Module) menu() *chat.MenuStep {
	return &chat.MenuStep{
		StepID: StepMenu,
		Prompt: MsgMenu,
		Key:    keyAction,
		Items: []chat.MenuItem{
			{Text: "إضافة عضو إلى مجموعة", Value: ActionAdd, Next: StepPhone},
			{Text: "إزالة عضو من مجموعة", Value: ActionRemove, Next: StepPhone},
			{Text: "ترقية عضو إلى مشرف", Value: ActionPromote, Next: StepPhone},
			{Text: "إزالة إشراف عضو", Value: ActionDemote, Next: StepPhone},
			{Text: "إدارة الأقسام والصفوف والمواد", Value: "taxonomy", Next: StepTaxonomyKind},
			{Text: "حذف محاضرة", Value: "delete_lecture", Next: StepPickLecture},
			{Text: "جدول المحاضرات PDF", Value: "export", Next: StepExport},
			{Text: "إحصائيات مجموعة", Value: "stats", Next: StepStatsGroup},
			{Text: "القائمة السوداء", Value: "blacklist", Next: StepBlacklistMenu},
		},
	}
}

func (m *Module) Flow() *chat.Flow {
	flow := chat.NewFlow(WorkflowID, StepMenu)
	flow.Add(m.menu(), StepPhone, StepTaxonomyKind, StepPickLecture, StepExport, StepStatsGroup, StepBlacklistMenu)

	// 1-4: membership
	flow.Add(&chat.TextStep{
		StepID:    StepPhone,
		Prompt:    MsgEnterPhone,
		Key:       keyPhone,
		Next:      StepGroup,
		Normalize: normalizePhone,
		Invalid:   MsgInvalidPhone,
	}, StepGroup)
	flow.Add(&chat.TextStep{
		StepID:    StepGroup,
		Prompt:    MsgEnterGroup,
		Key:       keyGroup,
		Next:      StepApply,
		Normalize: normalizeGroupID,
		Invalid:   MsgInvalidGroup,
	}, StepApply)
	flow.Add(&chat.ActionStep{StepID: StepApply, Run: m.applyMember})

	// 5: taxonomy flows
	kindItems := make([]chat.MenuItem, 0, len(entity.TaxonomyKinds))
	for _, kind := range entity.TaxonomyKinds {
		kindItems = append(kindItems, chat.MenuItem{Text: kind.Title(), Value: string(kind), Next: StepOpenTaxonomy})
	}
	flow.Add(&chat.MenuStep{StepID: StepTaxonomyKind, Prompt: MsgChooseKind, Items: kindItems, Key: keyKind}, StepOpenTaxonomy)
	flow.Add(&chat.ActionStep{StepID: StepOpenTaxonomy, Run: openTaxonomy})

	// 6: delete lecture
	flow.Add(&chat.SelectStep{
		StepID:  StepPickLecture,
		Prompt:  MsgChooseLecture,
		Empty:   MsgNoLectures,
		Source:  m.allLectures,
		IDKey:   keyLecture,
		NameKey: keyLectureName,
		Next:    StepConfirmDelete,
	}, StepConfirmDelete)
	flow.Add(&chat.MenuStep{
		StepID: StepConfirmDelete,
		Prompt: MsgConfirmDelete,
		Key:    keyConfirm,
		Items: []chat.MenuItem{
			{Text: "نعم، احذف", Value: "yes", Next: StepDeleteLecture},
			{Text: "لا", Value: "no", Next: StepDeleteLecture},
		},
	}, StepDeleteLecture)
	flow.Add(&chat.ActionStep{StepID: StepDeleteLecture, Run: m.deleteLecture})

	// 7: export
	flow.Add(&chat.ActionStep{StepID: StepExport, Run: m.exportLectures})

	// 8: stats
	flow.Add(&chat.TextStep{
		StepID:    StepStatsGroup,
		Prompt:    MsgEnterGroup,
		Key:       keyGroup,
		Next:      StepStats,
		Normalize: normalizeGroupID,
		Invalid:   MsgInvalidGroup,
	}, StepStats)
	flow.Add(&chat.ActionStep{StepID: StepStats, Run: m.showStats})

	// 9: blacklist
	flow.Add(&chat.MenuStep{
		StepID: StepBlacklistMenu,
		Prompt: MsgBlacklistMenu,
		Key:    keyListAction,
		Items: []chat.MenuItem{
			{Text: "عرض القائمة", Value: "show", Next: StepBlacklistShow},
			{Text: "إضافة رقم", Value: "add", Next: StepBlacklistUser},
			{Text: "إزالة رقم", Value: "remove", Next: StepBlacklistUser},
		},
	}, StepBlacklistShow, StepBlacklistUser)
	flow.Add(&chat.ActionStep{StepID: StepBlacklistShow, Run: m.showBlacklist})
	flow.Add(&chat.TextStep{
		StepID:    StepBlacklistUser,
		Prompt:    MsgEnterPhone,
		Key:       keyPhone,
		Next:      StepBlacklistSave,
		Normalize: normalizePhone,
		Invalid:   MsgInvalidPhone,
	}, StepBlacklistSave)
	flow.Add(&chat.ActionStep{StepID: StepBlacklistSave, Run: m.applyBlacklist})

	return flow
}

// Register adds the admin flow and the admin command.
func (m *Module) Register(engine *chat.ChatEngine) error {
	if err := engine.RegisterWorkflow(m.Flow()); err != nil {
		return err
	}
	engine.Commands().Register(chat.Command{
		Name:        CmdAdmin,
		Aliases:     []string{"!ادارة"},
		Description: "قائمة الإدارة",
		Access:      chat.AccessAdmin,
		Handler: func(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, _ string) error {
			return engine.StartWorkflow(ctx, ms, msg.ActorID(), msg.ChatID, WorkflowID, nil)
		},
	})
	return nil
}

func openTaxonomy(_ context.Context, _ chat.Messenger, state *chat.ChatState) chat.StepResult {
	kind := entity.TaxonomyKind(state.GetString(keyKind))
	return chat.StepResult{
		Complete:    true,
		UpdateState: map[string]any{chat.KeyNextWorkflow: string(taxonomy.WorkflowID(kind))},
	}
}
