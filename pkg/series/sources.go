package series

import (
	"github.com/outage-collector/pkg/config"
	"github.com/outage-collector/pkg/snapshot"
)

// SourceRef 一个需要重建曲线的数据源目录
type SourceRef struct {
	Name  string
	Label string
}

// ListSources returns the regular source directories under the store root,
// sorted by name. Directories with no config entry are treated as regular.
func ListSources(store *snapshot.Store, sources []config.SourceConfig) ([]SourceRef, error) {
	dirs, err := store.Sources()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]config.SourceConfig, len(sources))
	for _, s := range sources {
		byName[s.Name] = s
	}

	refs := make([]SourceRef, 0, len(dirs))
	for _, dir := range dirs {
		ref := SourceRef{Name: dir, Label: dir}
		if s, ok := byName[dir]; ok {
			if s.Kind == config.KindIrregular {
				continue
			}
			if s.Label != "" {
				ref.Label = s.Label
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// IrregularSources returns the configured irregular sources that have a
// directory in the store.
func IrregularSources(store *snapshot.Store, sources []config.SourceConfig) ([]SourceRef, error) {
	dirs, err := store.Sources()
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		present[d] = true
	}
	var refs []SourceRef
	for _, s := range sources {
		if s.Kind == config.KindIrregular && present[s.Name] {
			refs = append(refs, SourceRef{Name: s.Name, Label: s.Label})
		}
	}
	return refs, nil
}
