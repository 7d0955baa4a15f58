package entity

import (
	"fmt"
	"strings"
	"time"
)

type LectureType string

const (
	LectureTypeLecture LectureType = "lecture"
	LectureTypeSummary LectureType = "summary"
)

func (t LectureType) Title() string {
	if t == LectureTypeSummary {
		return "ملخص"
	}
	return "محاضرة"
}

// FileRef points to a stored copy of a lecture PDF.
type FileRef struct {
	ChatID    string `json:"chat_id" bson:"chat_id" db:"chat_id"`
	MessageID string `json:"message_id" bson:"message_id" db:"message_id"`
	BlobID    string `json:"blob_id" bson:"blob_id" db:"blob_id"`
	FileName  string `json:"file_name" bson:"file_name" db:"file_name"`
	MimeType  string `json:"mime_type" bson:"mime_type" db:"mime_type"`
	Size      int64  `json:"size" bson:"size" db:"size"`
}

type Lecture struct {
	ID            string      `json:"id" bson:"id" db:"id"`
	Type          LectureType `json:"type" bson:"type" db:"type"`
	SectionID     string      `json:"section_id" bson:"section_id" db:"section_id"`
	SectionName   string      `json:"section_name" bson:"section_name" db:"section_name"`
	ClassID       string      `json:"class_id" bson:"class_id" db:"class_id"`
	ClassName     string      `json:"class_name" bson:"class_name" db:"class_name"`
	GroupID       string      `json:"group_id" bson:"group_id" db:"group_id"`
	GroupName     string      `json:"group_name" bson:"group_name" db:"group_name"`
	ProfessorID   string      `json:"professor_id" bson:"professor_id" db:"professor_id"`
	ProfessorName string      `json:"professor_name" bson:"professor_name" db:"professor_name"`
	SubjectID     string      `json:"subject_id" bson:"subject_id" db:"subject_id"`
	SubjectName   string      `json:"subject_name" bson:"subject_name" db:"subject_name"`
	LectureNumber string      `json:"lecture_number" bson:"lecture_number" db:"lecture_number"`
	Date          time.Time   `json:"date" bson:"date" db:"date"`
	UploaderID    string      `json:"uploader_id" bson:"uploader_id" db:"uploader_id"`
	File          FileRef     `json:"file" bson:"file" db:"file"`
}

// Label is the one-line description shown in lists.
func (l Lecture) Label() string {
	return fmt.Sprintf("%s - %s %s (%s) %s", l.SubjectName, l.Type.Title(), l.LectureNumber, l.ProfessorName, l.Date.Format("2006-01-02"))
}

// ArchiveEntry is the copy of a lecture kept in the archive chat.
type ArchiveEntry struct {
	ID         string    `json:"id" bson:"id" db:"id"`
	LectureID  string    `json:"lecture_id" bson:"lecture_id" db:"lecture_id"`
	Lecture    Lecture   `json:"lecture" bson:"lecture" db:"-"`
	File       FileRef   `json:"file" bson:"file" db:"-"`
	ArchivedAt time.Time `json:"archived_at" bson:"archived_at" db:"archived_at"`
}

// LectureFilter selects lectures; empty fields match everything.
type LectureFilter struct {
	Type        LectureType `json:"type,omitempty"`
	SectionID   string      `json:"section_id,omitempty"`
	ClassID     string      `json:"class_id,omitempty"`
	GroupID     string      `json:"group_id,omitempty"`
	ProfessorID string      `json:"professor_id,omitempty"`
	SubjectID   string      `json:"subject_id,omitempty"`
	Query       string      `json:"query,omitempty"`
}

func (f LectureFilter) Match(l Lecture) bool {
	if f.Type != "" && f.Type != l.Type {
		return false
	}
	if f.SectionID != "" && f.SectionID != l.SectionID {
		return false
	}
	if f.ClassID != "" && f.ClassID != l.ClassID {
		return false
	}
	if f.GroupID != "" && f.GroupID != l.GroupID {
		return false
	}
	if f.ProfessorID != "" && f.ProfessorID != l.ProfessorID {
		return false
	}
	if f.SubjectID != "" && f.SubjectID != l.SubjectID {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		haystack := strings.ToLower(strings.Join([]string{
			l.SubjectName, l.ProfessorName, l.SectionName, l.ClassName, l.GroupName, l.LectureNumber,
		}, " "))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}
