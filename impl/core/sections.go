package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/ws"
)

// SetupSection stores a section tree as pending, provisions its remote
// folders and then marks it committed or failed. A provisioning failure is
// reported in the result and left for ReconcileSections.
func (c *Core) SetupSection(ctx context.Context, tree entity.SectionSetup) (*entity.SetupResult, error) {
	section, err := c.repo.CreateSectionTree(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("create section tree: %w", err)
	}
	log := c.log.With(slog.String("section", section.ID), slog.String("name", section.Name))
	log.Info("section stored, provisioning folders")

	result := c.provision(ctx, section, tree.FolderPaths())
	log.Info("section setup finished",
		slog.String("status", string(result.Section.FolderStatus)),
		slog.Int("folders", result.Folders),
	)
	return result, nil
}

func (c *Core) provision(ctx context.Context, section *entity.Entity, paths []string) *entity.SetupResult {
	result := &entity.SetupResult{Section: *section}

	created, err := c.folders.EnsureFolders(ctx, paths)
	result.Folders = created

	status, reason := entity.FolderCommitted, ""
	if err != nil {
		status, reason = entity.FolderFailed, err.Error()
		result.Error = reason
		c.log.With(sl.Err(err), slog.String("section", section.ID)).Warn("provision folders")
	}
	if err = c.repo.SetFolderStatus(ctx, section.ID, status, reason); err != nil {
		c.log.With(sl.Err(err), slog.String("section", section.ID)).Error("set folder status")
		if result.Error == "" {
			result.Error = err.Error()
		}
		status = entity.FolderPending
	}
	result.Section.FolderStatus = status
	result.Section.FolderError = reason

	if c.metrics != nil {
		c.metrics.SectionProvisioned(string(status))
	}
	c.broadcast(ws.EventSectionUpdated, result)
	return result
}

// PendingSections lists sections whose folders are not committed.
func (c *Core) PendingSections(ctx context.Context) ([]entity.Entity, error) {
	return c.repo.ListSectionsByFolderStatus(ctx, entity.FolderPending, entity.FolderFailed)
}

// ReconcileSections retries folder provisioning of pending and failed sections.
func (c *Core) ReconcileSections(ctx context.Context) error {
	sections, err := c.PendingSections(ctx)
	if err != nil {
		return fmt.Errorf("list pending sections: %w", err)
	}
	if len(sections) == 0 {
		return nil
	}
	c.log.Info("reconciling sections", slog.Int("count", len(sections)))

	var errs []error
	for i := range sections {
		paths, err := c.sectionPaths(ctx, sections[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if result := c.provision(ctx, &sections[i], paths); result.Error != "" {
			errs = append(errs, fmt.Errorf("section %s: %s", sections[i].ID, result.Error))
		}
	}
	return errors.Join(errs...)
}

// sectionPaths rebuilds the folder list of a stored section from its classes and subjects.
func (c *Core) sectionPaths(ctx context.Context, section entity.Entity) ([]string, error) {
	classes, err := c.repo.ListEntities(ctx, entity.KindClass)
	if err != nil {
		return nil, err
	}
	subjects, err := c.repo.ListEntities(ctx, entity.KindSubject)
	if err != nil {
		return nil, err
	}

	tree := entity.SectionSetup{Name: section.Name}
	for _, class := range classes {
		if class.ParentID != section.ID {
			continue
		}
		setup := entity.ClassSetup{Name: class.Name}
		for _, subject := range subjects {
			if subject.ParentID == class.ID {
				setup.Subjects = append(setup.Subjects, subject.Name)
			}
		}
		tree.Classes = append(tree.Classes, setup)
	}
	return tree.FolderPaths(), nil
}
