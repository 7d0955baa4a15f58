package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"LectureBot/bot/chat"
	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/storage"
)

var groupIDPattern = regexp.MustCompile(`^[0-9]+(-[0-9]+)?(@g\.us)?$`)

func normalizePhone(text string) (string, bool) {
	phone := chat.NormalizePhone(text)
	return phone, chat.IsValidPhone(phone)
}

// normalizeGroupID returns the full group JID, the form stats are recorded under.
func normalizeGroupID(text string) (string, bool) {
	id := chat.GroupKey(text)
	return id, groupIDPattern.MatchString(id)
}

func (m *Module) applyMember(ctx context.Context, ms chat.Messenger, state *chat.ChatState) chat.StepResult {
	action := state.GetString(keyAction)
	groupID := state.GetString(keyGroup)
	phone := state.GetString(keyPhone)

	var call func(ctx context.Context, groupID, phone string) error
	var done string
	switch action {
	case ActionAdd:
		call, done = m.groups.AddParticipant, MsgMemberAdded
	case ActionRemove:
		call, done = m.groups.RemoveParticipant, MsgMemberRemoved
	case ActionPromote:
		call, done = m.groups.PromoteParticipant, MsgMemberPromoted
	case ActionDemote:
		call, done = m.groups.DemoteParticipant, MsgMemberDemoted
	default:
		return chat.StepResult{Error: fmt.Errorf("unknown member action %q", action)}
	}

	if err := call(ctx, groupID, phone); err != nil {
		return chat.StepResult{Error: fmt.Errorf("%s %s in %s: %w", action, phone, groupID, err)}
	}
	m.log.Info("member updated",
		slog.String("action", action),
		slog.String("group_id", groupID),
		sl.Secret("phone", phone),
		slog.String("by", state.UserID),
	)
	return chat.Done(ctx, ms, state, fmt.Sprintf(done, phone))
}

func (m *Module) allLectures(ctx context.Context, _ *chat.ChatState) ([]chat.Option, error) {
	list, err := m.store.ListLectures(ctx, entity.LectureFilter{})
	if err != nil {
		return nil, err
	}
	options := make([]chat.Option, len(list))
	for i, l := range list {
		options[i] = chat.Option{ID: l.ID, Text: l.Label()}
	}
	return options, nil
}

func (m *Module) deleteLecture(ctx context.Context, ms chat.Messenger, state *chat.ChatState) chat.StepResult {
	if state.GetString(keyConfirm) != "yes" {
		return chat.Done(ctx, ms, state, chat.MsgCancelled)
	}
	id := state.GetString(keyLecture)
	lecture, err := m.store.GetLecture(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return chat.Done(ctx, ms, state, MsgLectureGone)
	}
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if err = m.store.DeleteLecture(ctx, id); err != nil {
		return chat.StepResult{Error: fmt.Errorf("deleting lecture %s: %w", id, err)}
	}
	if lecture.File.BlobID != "" && m.blobs != nil {
		if err = m.blobs.Delete(ctx, lecture.File.BlobID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("deleting lecture file", slog.String("lecture_id", id), sl.Err(err))
		}
	}
	m.log.Info("lecture deleted", slog.String("lecture_id", id), slog.String("by", state.UserID))
	return chat.Done(ctx, ms, state, fmt.Sprintf(MsgLectureDeleted, state.GetString(keyLectureName)))
}

func (m *Module) exportLectures(ctx context.Context, ms chat.Messenger, state *chat.ChatState) chat.StepResult {
	list, err := m.store.ListLectures(ctx, entity.LectureFilter{})
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if len(list) == 0 {
		return chat.Done(ctx, ms, state, MsgNoLectures)
	}
	data, err := m.exporter.LecturesTable(list)
	if err != nil {
		return chat.StepResult{Error: fmt.Errorf("rendering lectures table: %w", err)}
	}
	_, err = ms.SendDocument(ctx, state.ChatID, chat.Document{
		FileName: fmt.Sprintf("lectures-%s.pdf", time.Now().Format("2006-01-02")),
		MimeType: "application/pdf",
		Caption:  fmt.Sprintf(MsgExportCaption, len(list)),
		Data:     data,
	})
	if err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{Complete: true}
}

// FormatStats renders the statistics of a group as a message.
func FormatStats(stats *entity.GroupStats) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 إحصائيات المجموعة %s\n", stats.GroupID))
	sb.WriteString(fmt.Sprintf("➕ انضمام: %d\n", len(stats.Joins)))
	sb.WriteString(fmt.Sprintf("➖ مغادرة: %d\n", len(stats.Leaves)))
	sb.WriteString(fmt.Sprintf("💬 الرسائل: %d", stats.TotalMessages))

	type count struct {
		user string
		n    int
	}
	top := make([]count, 0, len(stats.Messages))
	for user, n := range stats.Messages {
		top = append(top, count{user, n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].n != top[j].n {
			return top[i].n > top[j].n
		}
		return top[i].user < top[j].user
	})
	if len(top) > 5 {
		top = top[:5]
	}
	for i, c := range top {
		sb.WriteString(fmt.Sprintf("\n%d. %s: %d", i+1, c.user, c.n))
	}
	return sb.String()
}

func (m *Module) showStats(ctx context.Context, ms chat.Messenger, state *chat.ChatState) chat.StepResult {
	stats, err := m.store.GroupStats(ctx, state.GetString(keyGroup))
	if err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.Done(ctx, ms, state, FormatStats(stats))
}

func (m *Module) showBlacklist(ctx context.Context, ms chat.Messenger, state *chat.ChatState) chat.StepResult {
	list, err := m.store.ListBlacklist(ctx)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if len(list) == 0 {
		return chat.Done(ctx, ms, state, MsgBlacklistEmpty)
	}
	var sb strings.Builder
	sb.WriteString("🚫 القائمة السوداء:")
	for i, id := range list {
		sb.WriteString(fmt.Sprintf("\n%d. +%s", i+1, id))
	}
	return chat.Done(ctx, ms, state, sb.String())
}

func (m *Module) applyBlacklist(ctx context.Context, ms chat.Messenger, state *chat.ChatState) chat.StepResult {
	phone := state.GetString(keyPhone)
	userID := chat.UserKey(phone)
	if state.GetString(keyListAction) == "remove" {
		err := m.store.RemoveFromBlacklist(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return chat.Done(ctx, ms, state, fmt.Sprintf(MsgNotBlacklisted, phone))
		}
		if err != nil {
			return chat.StepResult{Error: err}
		}
		return chat.Done(ctx, ms, state, fmt.Sprintf(MsgUnblacklisted, phone))
	}
	if err := m.store.AddToBlacklist(ctx, userID); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.Done(ctx, ms, state, fmt.Sprintf(MsgBlacklisted, phone))
}
