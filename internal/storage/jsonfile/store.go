// Package jsonfile stores every collection as one JSON file that is rewritten
// on each save: lectures.json, archive.json, sections.json and so on.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"LectureBot/entity"
	"LectureBot/internal/storage"

	"github.com/google/uuid"
)

const (
	lecturesFile   = "lectures.json"
	archiveFile    = "archive.json"
	blacklistFile  = "blacklist.json"
	statsFile      = "stats.json"
	developersFile = "developers.json"
)

// statsDoc is the layout of stats.json.
type statsDoc struct {
	Joins    map[string][]entity.MemberRecord `json:"joins"`
	Leaves   map[string][]entity.MemberRecord `json:"leaves"`
	Messages map[string]map[string]int        `json:"messages"`
}

type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func taxonomyFile(kind entity.TaxonomyKind) string {
	return kind.Collection() + ".json"
}

func (s *Store) entities(kind entity.TaxonomyKind) ([]entity.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown taxonomy %q", kind)
	}
	var list []entity.Entity
	if err := s.load(taxonomyFile(kind), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) ListEntities(_ context.Context, kind entity.TaxonomyKind) ([]entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities(kind)
}

func (s *Store) GetEntity(_ context.Context, kind entity.TaxonomyKind, id string) (*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.entities(kind)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) AddEntity(_ context.Context, kind entity.TaxonomyKind, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEntities(kind, e)
}

func (s *Store) addEntities(kind entity.TaxonomyKind, items ...*entity.Entity) error {
	list, err := s.entities(kind)
	if err != nil {
		return err
	}
	for _, e := range items {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.now()
		}
		list = append(list, *e)
	}
	return s.save(taxonomyFile(kind), list)
}

func (s *Store) DeleteEntity(_ context.Context, kind entity.TaxonomyKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.entities(kind)
	if err != nil {
		return err
	}
	kept := list[:0]
	found := false
	for _, e := range list {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return storage.ErrNotFound
	}
	return s.save(taxonomyFile(kind), kept)
}

func (s *Store) lectures() ([]entity.Lecture, error) {
	var list []entity.Lecture
	if err := s.load(lecturesFile, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) SaveLecture(_ context.Context, l *entity.Lecture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.lectures()
	if err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Date.IsZero() {
		l.Date = s.now()
	}
	for i := range list {
		if list[i].ID == l.ID {
			list[i] = *l
			return s.save(lecturesFile, list)
		}
	}
	return s.save(lecturesFile, append(list, *l))
}

func (s *Store) GetLecture(_ context.Context, id string) (*entity.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.lectures()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListLectures(_ context.Context, filter entity.LectureFilter) ([]entity.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.lectures()
	if err != nil {
		return nil, err
	}
	matched := make([]entity.Lecture, 0, len(list))
	for _, l := range list {
		if filter.Match(l) {
			matched = append(matched, l)
		}
	}
	return matched, nil
}

func (s *Store) DeleteLecture(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.lectures()
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			return s.save(lecturesFile, append(list[:i], list[i+1:]...))
		}
	}
	return storage.ErrNotFound
}

func (s *Store) SaveArchiveEntry(_ context.Context, a *entity.ArchiveEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []entity.ArchiveEntry
	if err := s.load(archiveFile, &list); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.ArchivedAt.IsZero() {
		a.ArchivedAt = s.now()
	}
	return s.save(archiveFile, append(list, *a))
}

func (s *Store) ListArchive(_ context.Context) ([]entity.ArchiveEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []entity.ArchiveEntry
	if err := s.load(archiveFile, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) stringSet(name string) ([]string, error) {
	var list []string
	if err := s.load(name, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) addToSet(name, value string) error {
	list, err := s.stringSet(name)
	if err != nil {
		return err
	}
	for _, v := range list {
		if v == value {
			return nil
		}
	}
	return s.save(name, append(list, value))
}

func (s *Store) AddToBlacklist(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addToSet(blacklistFile, userID)
}

func (s *Store) RemoveFromBlacklist(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.stringSet(blacklistFile)
	if err != nil {
		return err
	}
	for i, v := range list {
		if v == userID {
			return s.save(blacklistFile, append(list[:i], list[i+1:]...))
		}
	}
	return storage.ErrNotFound
}

func (s *Store) IsBlacklisted(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.stringSet(blacklistFile)
	if err != nil {
		return false, err
	}
	for _, v := range list {
		if v == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListBlacklist(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stringSet(blacklistFile)
}

func (s *Store) stats() (*statsDoc, error) {
	doc := &statsDoc{}
	if err := s.load(statsFile, doc); err != nil {
		return nil, err
	}
	if doc.Joins == nil {
		doc.Joins = make(map[string][]entity.MemberRecord)
	}
	if doc.Leaves == nil {
		doc.Leaves = make(map[string][]entity.MemberRecord)
	}
	if doc.Messages == nil {
		doc.Messages = make(map[string]map[string]int)
	}
	return doc, nil
}

func (s *Store) RecordMembership(_ context.Context, ev entity.MembershipEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.stats()
	if err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	record := entity.MemberRecord{UserID: ev.UserID, At: ev.At}
	switch ev.Action {
	case entity.MemberJoined:
		doc.Joins[ev.GroupID] = append(doc.Joins[ev.GroupID], record)
	case entity.MemberLeft:
		doc.Leaves[ev.GroupID] = append(doc.Leaves[ev.GroupID], record)
	default:
		return fmt.Errorf("unknown membership action %q", ev.Action)
	}
	return s.save(statsFile, doc)
}

func (s *Store) IncrementMessageCount(_ context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.stats()
	if err != nil {
		return err
	}
	counters, ok := doc.Messages[groupID]
	if !ok {
		counters = make(map[string]int)
		doc.Messages[groupID] = counters
	}
	counters[userID]++
	return s.save(statsFile, doc)
}

func (s *Store) GroupStats(_ context.Context, groupID string) (*entity.GroupStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.stats()
	if err != nil {
		return nil, err
	}
	stats := &entity.GroupStats{
		GroupID:  groupID,
		Joins:    doc.Joins[groupID],
		Leaves:   doc.Leaves[groupID],
		Messages: make(map[string]int),
	}
	for user, n := range doc.Messages[groupID] {
		stats.Messages[user] = n
		stats.TotalMessages += n
	}
	return stats, nil
}

func (s *Store) ListDevelopers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stringSet(developersFile)
}

func (s *Store) AddDeveloper(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addToSet(developersFile, userID)
}

// CreateSectionTree writes the files one after another; a failure part way
// leaves the earlier files written.
func (s *Store) CreateSectionTree(_ context.Context, tree entity.SectionSetup) (*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	section := &entity.Entity{ID: uuid.NewString(), Name: tree.Name, FolderStatus: entity.FolderPending, CreatedAt: now}

	var classes, subjects, groups, professors []*entity.Entity
	for _, c := range tree.Classes {
		class := &entity.Entity{ID: uuid.NewString(), Name: c.Name, ParentID: section.ID, CreatedAt: now}
		classes = append(classes, class)
		for _, name := range c.Subjects {
			subjects = append(subjects, &entity.Entity{ID: uuid.NewString(), Name: name, ParentID: class.ID, CreatedAt: now})
		}
		for _, name := range c.Groups {
			groups = append(groups, &entity.Entity{ID: uuid.NewString(), Name: name, ParentID: class.ID, CreatedAt: now})
		}
	}
	for _, name := range tree.Professors {
		professors = append(professors, &entity.Entity{ID: uuid.NewString(), Name: name, CreatedAt: now})
	}

	if err := s.addEntities(entity.KindSection, section); err != nil {
		return nil, err
	}
	for kind, items := range map[entity.TaxonomyKind][]*entity.Entity{
		entity.KindClass:     classes,
		entity.KindSubject:   subjects,
		entity.KindGroup:     groups,
		entity.KindProfessor: professors,
	} {
		if len(items) == 0 {
			continue
		}
		if err := s.addEntities(kind, items...); err != nil {
			return nil, err
		}
	}
	return section, nil
}

func (s *Store) SetFolderStatus(_ context.Context, sectionID string, status entity.FolderStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.entities(entity.KindSection)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == sectionID {
			list[i].FolderStatus = status
			list[i].FolderError = reason
			return s.save(taxonomyFile(entity.KindSection), list)
		}
	}
	return storage.ErrNotFound
}

func (s *Store) ListSectionsByFolderStatus(_ context.Context, statuses ...entity.FolderStatus) ([]entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.entities(entity.KindSection)
	if err != nil {
		return nil, err
	}
	var matched []entity.Entity
	for _, e := range list {
		for _, st := range statuses {
			if e.FolderStatus == st {
				matched = append(matched, e)
				break
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	return matched, nil
}

var _ storage.Repository = (*Store)(nil)
