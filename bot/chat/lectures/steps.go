package lectures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"LectureBot/bot/chat"
	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/storage"
)

// lectureFromState collects the answers of the upload flow.
func lectureFromState(state *chat.ChatState) *entity.Lecture {
	return &entity.Lecture{
		Type:          entity.LectureType(state.GetString(KeyType)),
		SectionID:     state.GetString(entity.KindSection.IDKey()),
		SectionName:   state.GetString(entity.KindSection.NameKey()),
		ClassID:       state.GetString(entity.KindClass.IDKey()),
		ClassName:     state.GetString(entity.KindClass.NameKey()),
		GroupID:       state.GetString(entity.KindGroup.IDKey()),
		GroupName:     state.GetString(entity.KindGroup.NameKey()),
		ProfessorID:   state.GetString(entity.KindProfessor.IDKey()),
		ProfessorName: state.GetString(entity.KindProfessor.NameKey()),
		SubjectID:     state.GetString(entity.KindSubject.IDKey()),
		SubjectName:   state.GetString(entity.KindSubject.NameKey()),
		LectureNumber: state.GetString(KeyLectureNumber),
		UploaderID:    state.UserID,
	}
}

func (m *Module) storeUpload(ctx context.Context, ms chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	att := input.Attachment
	if att.Size > entity.MaxFileSize {
		return stay(ctx, ms, state, MsgFileTooLarge)
	}
	data, err := att.Fetch(ctx)
	if err != nil {
		return chat.StepResult{Error: fmt.Errorf("downloading attachment: %w", err)}
	}
	if int64(len(data)) > entity.MaxFileSize {
		return stay(ctx, ms, state, MsgFileTooLarge)
	}

	lecture := lectureFromState(state)
	lecture.Date = time.Now().UTC()
	fileName := att.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("%s-%s.pdf", lecture.SubjectName, lecture.LectureNumber)
	}

	blobID, err := m.blobs.Put(ctx, fileName, data, entity.FileMetadata{MIMEType: att.MimeType, Uploader: state.UserID})
	if err != nil {
		return chat.StepResult{Error: fmt.Errorf("storing file: %w", err)}
	}

	doc := chat.Document{FileName: fileName, MimeType: att.MimeType, Caption: lecture.Label(), Data: data}
	lecture.File, err = m.copyTo(ctx, ms, m.opts.StorageChatID, doc, state.ChatID, input.MessageID)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	lecture.File.BlobID = blobID
	lecture.File.FileName = fileName
	lecture.File.MimeType = att.MimeType
	lecture.File.Size = int64(len(data))

	if err = m.store.SaveLecture(ctx, lecture); err != nil {
		return chat.StepResult{Error: fmt.Errorf("saving lecture: %w", err)}
	}

	archived, err := m.copyTo(ctx, ms, m.opts.ArchiveChatID, doc, lecture.File.ChatID, lecture.File.MessageID)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	archived.BlobID = blobID
	archived.FileName = fileName
	archived.MimeType = att.MimeType
	archived.Size = lecture.File.Size
	entry := &entity.ArchiveEntry{LectureID: lecture.ID, Lecture: *lecture, File: archived}
	if err = m.store.SaveArchiveEntry(ctx, entry); err != nil {
		return chat.StepResult{Error: fmt.Errorf("saving archive entry: %w", err)}
	}

	m.log.Info("lecture stored",
		slog.String("lecture_id", lecture.ID),
		slog.String("uploader", state.UserID),
		slog.Int64("size", lecture.File.Size),
	)
	if m.listener != nil {
		m.listener.LectureUploaded(*lecture)
	}
	return chat.Done(ctx, ms, state, fmt.Sprintf(MsgUploaded, lecture.Type.Title(), lecture.Label()))
}

// copyTo sends doc to chatID and references the sent message; with no chat
// configured the fallback message is referenced instead.
func (m *Module) copyTo(ctx context.Context, ms chat.Messenger, chatID string, doc chat.Document, fallbackChat, fallbackMsg string) (entity.FileRef, error) {
	if chatID == "" {
		return entity.FileRef{ChatID: fallbackChat, MessageID: fallbackMsg}, nil
	}
	msgID, err := ms.SendDocument(ctx, chatID, doc)
	if err != nil {
		return entity.FileRef{}, fmt.Errorf("forwarding file to %s: %w", chatID, err)
	}
	return entity.FileRef{ChatID: chatID, MessageID: msgID}, nil
}

func (m *Module) matchingLectures(ctx context.Context, state *chat.ChatState) ([]chat.Option, error) {
	filter := entity.LectureFilter{
		Type:        entity.LectureType(state.GetString(KeyType)),
		SectionID:   state.GetString(entity.KindSection.IDKey()),
		ClassID:     state.GetString(entity.KindClass.IDKey()),
		GroupID:     state.GetString(entity.KindGroup.IDKey()),
		ProfessorID: state.GetString(entity.KindProfessor.IDKey()),
		SubjectID:   state.GetString(entity.KindSubject.IDKey()),
	}
	list, err := m.store.ListLectures(ctx, filter)
	if err != nil {
		return nil, err
	}
	options := make([]chat.Option, len(list))
	for i, l := range list {
		options[i] = chat.Option{ID: l.ID, Text: fmt.Sprintf("%s %s - %s", l.Type.Title(), l.LectureNumber, l.Date.Format("2006-01-02"))}
	}
	return options, nil
}

func (m *Module) sendLecture(ctx context.Context, ms chat.Messenger, state *chat.ChatState, opt chat.Option) chat.StepResult {
	lecture, err := m.store.GetLecture(ctx, opt.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return chat.Done(ctx, ms, state, MsgNoMatchingLectures)
	}
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if lecture.File.BlobID == "" {
		return chat.Done(ctx, ms, state, MsgFileUnavailable)
	}
	data, err := m.blobs.Get(ctx, lecture.File.BlobID)
	if errors.Is(err, storage.ErrNotFound) {
		m.log.Warn("lecture blob missing", slog.String("lecture_id", lecture.ID), sl.Err(err))
		return chat.Done(ctx, ms, state, MsgFileUnavailable)
	}
	if err != nil {
		return chat.StepResult{Error: fmt.Errorf("reading file: %w", err)}
	}

	mimeType := lecture.File.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	_, err = ms.SendDocument(ctx, state.ChatID, chat.Document{
		FileName: lecture.File.FileName,
		MimeType: mimeType,
		Caption:  lecture.Label(),
		Data:     data,
	})
	if err != nil {
		return chat.StepResult{Error: fmt.Errorf("sending file: %w", err)}
	}
	return chat.StepResult{Complete: true}
}

func stay(ctx context.Context, ms chat.Messenger, state *chat.ChatState, text string) chat.StepResult {
	if err := ms.SendText(ctx, state.ChatID, text); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}
