package taxonomy

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
	StepMenu   chat.StepID = "menu"
	StepName   chat.StepID = "name"
	StepSave   chat.StepID = "save"
	StepList   chat.StepID = "list"
	StepDelete chat.StepID = "delete"
)

const keyName = "name"

// Commands opening the management flow of each kind.
var Commands = map[entity.TaxonomyKind]string{
	entity.KindSection:   "!الأقسام",
	entity.KindClass:     "!الصفوف",
	entity.KindGroup:     "!المجموعات",
	entity.KindProfessor: "!الأساتذة",
	entity.KindSubject:   "!المواد",
}

type Store interface {
	picker.Taxonomy
	AddEntity(ctx context.Context, kind entity.TaxonomyKind, e *entity.Entity) error
	DeleteEntity(ctx context.Context, kind entity.TaxonomyKind, id string) error
}

// WorkflowID is the management flow of kind.
func WorkflowID(kind entity.TaxonomyKind) chat.WorkflowID {
	return chat.WorkflowID("taxonomy_" + string(kind))
}

type Module struct {
	store Store
	log   *slog.Logger
}

func New(store Store, log *slog.Logger) *Module {
	return &Module{store: store, log: log.With(sl.Module("taxonomy"))}
}

// Flow builds the add / list / delete flow of kind. Kinds with a parent
// ask for the parent before the name.
func (m *Module) Flow(kind entity.TaxonomyKind) *chat.Flow {
	addFirst := StepName
	flow := chat.NewFlow(WorkflowID(kind), StepMenu)
	if parent := kind.Parent(); parent != "" {
		addFirst = picker.StepID(parent)
		flow.Add(picker.Step(m.store, parent, StepName), StepName)
	}

	flow.Add(&chat.MenuStep{
		StepID: StepMenu,
		Prompt: fmt.Sprintf(MsgMenu, kind.Title()),
		Items: []chat.MenuItem{
			{Text: fmt.Sprintf("إضافة %s", kind.Title()), Value: "add", Next: addFirst},
			{Text: fmt.Sprintf("عرض %s", kind.Title()), Value: "list", Next: StepList},
			{Text: fmt.Sprintf("حذف %s", kind.Title()), Value: "delete", Next: StepDelete},
		},
	}, addFirst, StepList, StepDelete)

	flow.Add(&chat.TextStep{
		StepID: StepName,
		Prompt: fmt.Sprintf(MsgEnterName, kind.Title()),
		Key:    keyName,
		Next:   StepSave,
	}, StepSave)

	flow.Add(&chat.ActionStep{StepID: StepSave, Run: func(ctx context.Context, ms chat.Messenger, state *chat.ChatState) chat.StepResult {
		return m.save(ctx, ms, state, kind)
	}})
	flow.Add(&chat.ActionStep{StepID: StepList, Run: func(ctx context.Context, ms chat.Messenger, state *chat.ChatState) chat.StepResult {
		return m.list(ctx, ms, state, kind)
	}})
	flow.Add(&chat.SelectStep{
		StepID: StepDelete,
		Prompt: fmt.Sprintf(MsgChooseDelete, kind.Title()),
		Empty:  fmt.Sprintf(MsgEmpty, kind.Title()),
		Source: picker.Options(m.store, kind),
		OnSelect: func(ctx context.Context, ms chat.Messenger, state *chat.ChatState, opt chat.Option) chat.StepResult {
			return m.remove(ctx, ms, state, kind, opt)
		},
	})
	return flow
}

// Register adds the flow and admin command of every kind.
func (m *Module) Register(engine *chat.ChatEngine) error {
	for _, kind := range entity.TaxonomyKinds {
		if err := engine.RegisterWorkflow(m.Flow(kind)); err != nil {
			return err
		}
		wf := WorkflowID(kind)
		engine.Commands().Register(chat.Command{
			Name:        Commands[kind],
			Description: fmt.Sprintf("إدارة %s", kind.Title()),
			Access:      chat.AccessAdmin,
			Handler: func(ctx context.Context, ms chat.Messenger, msg chat.IncomingMessage, _ string) error {
				return engine.StartWorkflow(ctx, ms, msg.ActorID(), msg.ChatID, wf, nil)
			},
		})
	}
	return nil
}

func (m *Module) save(ctx context.Context, ms chat.Messenger, state *chat.ChatState, kind entity.TaxonomyKind) chat.StepResult {
	e := &entity.Entity{Name: state.GetString(keyName)}
	if parent := kind.Parent(); parent != "" {
		e.ParentID = state.GetString(parent.IDKey())
	}
	if err := m.store.AddEntity(ctx, kind, e); err != nil {
		return chat.StepResult{Error: fmt.Errorf("adding %s: %w", kind, err)}
	}
	m.log.Info("entity added",
		slog.String("kind", string(kind)),
		slog.String("id", e.ID),
		slog.String("by", state.UserID),
	)
	return chat.Done(ctx, ms, state, fmt.Sprintf(MsgAdded, kind.Title(), e.Name))
}

func (m *Module) list(ctx context.Context, ms chat.Messenger, state *chat.ChatState, kind entity.TaxonomyKind) chat.StepResult {
	list, err := m.store.ListEntities(ctx, kind)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if len(list) == 0 {
		return chat.Done(ctx, ms, state, fmt.Sprintf(MsgEmpty, kind.Title()))
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 %s:\n", kind.Title()))
	for i, e := range list {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, e.Name))
	}
	return chat.Done(ctx, ms, state, strings.TrimRight(sb.String(), "\n"))
}

func (m *Module) remove(ctx context.Context, ms chat.Messenger, state *chat.ChatState, kind entity.TaxonomyKind, opt chat.Option) chat.StepResult {
	if err := m.store.DeleteEntity(ctx, kind, opt.ID); err != nil {
		return chat.StepResult{Error: fmt.Errorf("deleting %s %s: %w", kind, opt.ID, err)}
	}
	m.log.Info("entity deleted",
		slog.String("kind", string(kind)),
		slog.String("id", opt.ID),
		slog.String("by", state.UserID),
	)
	return chat.Done(ctx, ms, state, fmt.Sprintf(MsgDeleted, kind.Title(), opt.Text))
}
