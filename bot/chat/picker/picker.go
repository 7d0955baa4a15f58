// Package picker builds the numbered taxonomy selection steps shared by the
// upload, download and administration flows.
package picker

import (
	"context"
	"fmt"

	"LectureBot/bot/chat"
	"LectureBot/entity"
)

// Taxonomy lists the entries of one kind in insertion order.
type Taxonomy interface {
	ListEntities(ctx context.Context, kind entity.TaxonomyKind) ([]entity.Entity, error)
}

// StepID is the id of the picker step for kind.
func StepID(kind entity.TaxonomyKind) chat.StepID {
	return chat.StepID("pick_" + string(kind))
}

// Options lists the entries of kind as options. When the parent of kind was
// already picked, entries attached to another parent are left out.
func Options(store Taxonomy, kind entity.TaxonomyKind) chat.OptionSource {
	return func(ctx context.Context, state *chat.ChatState) ([]chat.Option, error) {
		list, err := store.ListEntities(ctx, kind)
		if err != nil {
			return nil, err
		}
		parentID := ""
		if parent := kind.Parent(); parent != "" {
			parentID = state.GetString(parent.IDKey())
		}
		options := make([]chat.Option, 0, len(list))
		for _, e := range list {
			if parentID != "" && e.ParentID != "" && e.ParentID != parentID {
				continue
			}
			options = append(options, chat.Option{ID: e.ID, Text: e.Name})
		}
		return options, nil
	}
}

// Step returns a picker storing the choice under kind's id and name keys.
func Step(store Taxonomy, kind entity.TaxonomyKind, next chat.StepID) *chat.SelectStep {
	return &chat.SelectStep{
		StepID:  StepID(kind),
		Prompt:  fmt.Sprintf("اختر %s:", kind.Title()),
		Empty:   fmt.Sprintf("⚠️ لا توجد عناصر في %s بعد.", kind.Title()),
		Source:  Options(store, kind),
		IDKey:   kind.IDKey(),
		NameKey: kind.NameKey(),
		Next:    next,
	}
}

// Chain adds one picker per kind to flow, in order, ending at last.
// It returns the id of the first picker.
func Chain(flow *chat.Flow, store Taxonomy, kinds []entity.TaxonomyKind, last chat.StepID) chat.StepID {
	for i, kind := range kinds {
		next := last
		if i+1 < len(kinds) {
			next = StepID(kinds[i+1])
		}
		flow.Add(Step(store, kind, next), next)
	}
	if len(kinds) == 0 {
		return last
	}
	return StepID(kinds[0])
}

// Missing returns the kinds without any entry.
func Missing(ctx context.Context, store Taxonomy, kinds []entity.TaxonomyKind) ([]entity.TaxonomyKind, error) {
	var missing []entity.TaxonomyKind
	for _, kind := range kinds {
		list, err := store.ListEntities(ctx, kind)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			missing = append(missing, kind)
		}
	}
	return missing, nil
}
