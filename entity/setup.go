package entity

import "path"

// SectionSetup is a section with its nested classes, inserted as one unit.
type SectionSetup struct {
	Name       string       `json:"name" validate:"required"`
	Professors []string     `json:"professors" validate:"dive,required"`
	Classes    []ClassSetup `json:"classes" validate:"dive"`
}

type ClassSetup struct {
	Name     string   `json:"name" validate:"required"`
	Subjects []string `json:"subjects" validate:"dive,required"`
	Groups   []string `json:"groups" validate:"dive,required"`
}

// FolderPaths lists the remote folders mirroring the tree, parents first.
func (s SectionSetup) FolderPaths() []string {
	paths := []string{s.Name}
	for _, class := range s.Classes {
		classPath := path.Join(s.Name, class.Name)
		paths = append(paths, classPath)
		for _, subject := range class.Subjects {
			paths = append(paths, path.Join(classPath, subject))
		}
	}
	return paths
}

// SetupResult reports the outcome of a section setup.
type SetupResult struct {
	Section Entity `json:"section"`
	Folders int    `json:"folders"`
	Error   string `json:"error,omitempty"`
}
