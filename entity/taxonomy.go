package entity

import "time"

// TaxonomyKind names one of the reference collections used to tag lectures.
type TaxonomyKind string

const (
	KindSection   TaxonomyKind = "section"
	KindClass     TaxonomyKind = "class"
	KindGroup     TaxonomyKind = "group"
	KindProfessor TaxonomyKind = "professor"
	KindSubject   TaxonomyKind = "subject"
)

// TaxonomyKinds is the order in which lecture tags are picked.
var TaxonomyKinds = []TaxonomyKind{KindSection, KindClass, KindGroup, KindProfessor, KindSubject}

func (k TaxonomyKind) Valid() bool {
	switch k {
	case KindSection, KindClass, KindGroup, KindProfessor, KindSubject:
		return true
	}
	return false
}

// Parent returns the kind an entry of k belongs to, or "" for top level kinds.
func (k TaxonomyKind) Parent() TaxonomyKind {
	switch k {
	case KindClass:
		return KindSection
	case KindSubject, KindGroup:
		return KindClass
	}
	return ""
}

// Collection is the storage name: json file base name, table and mongo collection.
func (k TaxonomyKind) Collection() string {
	switch k {
	case KindClass:
		return "classes"
	default:
		return string(k) + "s"
	}
}

func (k TaxonomyKind) Title() string {
	switch k {
	case KindSection:
		return "القسم"
	case KindClass:
		return "الصف"
	case KindGroup:
		return "المجموعة"
	case KindProfessor:
		return "الأستاذ"
	case KindSubject:
		return "المادة"
	}
	return string(k)
}

func (k TaxonomyKind) IDKey() string   { return string(k) + "Id" }
func (k TaxonomyKind) NameKey() string { return string(k) + "Name" }

// FolderStatus tracks remote folder provisioning of a section.
type FolderStatus string

const (
	FolderNone      FolderStatus = ""
	FolderPending   FolderStatus = "pending"
	FolderCommitted FolderStatus = "committed"
	FolderFailed    FolderStatus = "failed"
)

// Entity is a taxonomy entry: section, class, group, professor or subject.
type Entity struct {
	ID           string       `json:"id" bson:"id" db:"id"`
	Name         string       `json:"name" bson:"name" db:"name" validate:"required"`
	ParentID     string       `json:"parent_id,omitempty" bson:"parent_id,omitempty" db:"parent_id"`
	FolderStatus FolderStatus `json:"folder_status,omitempty" bson:"folder_status,omitempty" db:"folder_status"`
	FolderError  string       `json:"folder_error,omitempty" bson:"folder_error,omitempty" db:"folder_error"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at" db:"created_at"`
}
