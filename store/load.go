package store

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/rf2"
	"github.com/c360/termgraph/snomed"
)

// File categories used in load statistics.
const (
	CategoryConcept            = "concept"
	CategoryDescription        = "description"
	CategoryTextDefinition     = "text_definition"
	CategoryRelationship       = "relationship"
	CategoryStatedRelationship = "stated_relationship"
	CategorySimpleRefset       = "simple_refset"
	CategoryLanguageRefset     = "language_refset"
	CategoryMRCMDomain         = "mrcm_domain"
	CategoryMRCMAttrDomain     = "mrcm_attribute_domain"
	CategoryMRCMAttrRange      = "mrcm_attribute_range"
)

// LoaderConfig controls what a Loader reads and how.
type LoaderConfig struct {
	// Parallel loads independent files concurrently. The resulting store
	// is identical to a sequential load of the same input.
	Parallel bool

	Concept      rf2.Config
	Description  rf2.DescriptionConfig
	Relationship rf2.RelationshipConfig

	// IncludeStated also loads the stated relationship file when present.
	IncludeStated bool
	// IncludeTextDefinitions also loads the text definition file when
	// present, storing its rows as descriptions of the definition type.
	IncludeTextDefinitions bool
}

// SetDefaults fills zero values with the standard reading configuration.
func (c *LoaderConfig) SetDefaults() {
	if c.Concept.BatchSize == 0 {
		c.Concept = rf2.DefaultConfig()
	}
	if c.Description.Base.BatchSize == 0 {
		c.Description = rf2.DefaultDescriptionConfig()
	}
	if c.Relationship.Base.BatchSize == 0 {
		c.Relationship = rf2.InferredOnly()
	}
}

// Validate checks the configuration.
func (c LoaderConfig) Validate() error {
	if err := c.Concept.Validate(); err != nil {
		return err
	}
	if err := c.Description.Base.Validate(); err != nil {
		return err
	}
	return c.Relationship.Base.Validate()
}

// Loader reads a discovered release into a new store.
type Loader struct {
	config LoaderConfig
	logger *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(config LoaderConfig, logger *slog.Logger) (*Loader, error) {
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.WrapConfiguration(err, "Loader", "NewLoader", "config validation")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{config: config, logger: logger}, nil
}

// Load reads every file in the catalog into a fresh store. The returned
// store is still in the loading phase; the caller builds the closure and
// calls BeginServing.
//
// Parallelism is an optimization, never a semantics change: each index
// family is fed by exactly one task in file order, so the final store is a
// deterministic function of the input files.
func (l *Loader) Load(ctx context.Context, catalog rf2.Catalog) (*Store, error) {
	s := New(Deps{Logger: l.logger})
	s.stats.ReleaseDate = catalog.ReleaseDate

	tasks := l.tasks(s, catalog)

	if l.config.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, task := range tasks {
			g.Go(func() error { return task(gctx) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, task := range tasks {
			if err := task(ctx); err != nil {
				return nil, err
			}
		}
	}

	l.logger.Info("release loaded",
		"release_date", catalog.ReleaseDate,
		"concepts", s.ConceptCount(),
		"descriptions", s.DescriptionCount(),
		"relationships", s.RelationshipCount(),
		"decode_errors", s.stats.TotalDecodeErrors())
	return s, nil
}

// tasks builds one task per index family. Files feeding the same index
// (descriptions + text definitions, inferred + stated relationships) share
// a task so their insert order never depends on scheduling.
func (l *Loader) tasks(s *Store, catalog rf2.Catalog) []func(context.Context) error {
	var tasks []func(context.Context) error

	tasks = append(tasks, func(ctx context.Context) error {
		return loadRecords(ctx, s, catalog.ConceptFile, CategoryConcept,
			rf2.ConceptSpec, l.config.Concept, nil, s.InsertConcepts)
	})

	tasks = append(tasks, func(ctx context.Context) error {
		descFilters := rf2.DescriptionFilters(l.config.Description)
		if err := loadRecords(ctx, s, catalog.DescriptionFile, CategoryDescription,
			rf2.DescriptionSpec, l.config.Description.Base, descFilters, s.InsertDescriptions); err != nil {
			return err
		}
		if l.config.IncludeTextDefinitions && catalog.TextDefinitionFile != "" {
			return loadRecords(ctx, s, catalog.TextDefinitionFile, CategoryTextDefinition,
				rf2.DescriptionSpec, l.config.Description.Base, descFilters, s.InsertDescriptions)
		}
		return nil
	})

	tasks = append(tasks, func(ctx context.Context) error {
		relFilters := rf2.RelationshipFilters(l.config.Relationship)
		if err := loadRecords(ctx, s, catalog.RelationshipFile, CategoryRelationship,
			rf2.RelationshipSpec, l.config.Relationship.Base, relFilters, s.InsertRelationships); err != nil {
			return err
		}
		if l.config.IncludeStated && catalog.StatedRelationshipFile != "" {
			// Stated rows keep their own characteristic type; the stated
			// file bypasses the inferred-only characteristic filter.
			statedConfig := rf2.RelationshipConfig{
				Base:    l.config.Relationship.Base,
				TypeIDs: l.config.Relationship.TypeIDs,
			}
			return loadRecords(ctx, s, catalog.StatedRelationshipFile, CategoryStatedRelationship,
				rf2.RelationshipSpec, statedConfig.Base,
				rf2.RelationshipFilters(statedConfig), s.InsertRelationships)
		}
		return nil
	})

	if catalog.SimpleRefsetFile != "" {
		tasks = append(tasks, func(ctx context.Context) error {
			return loadRecords(ctx, s, catalog.SimpleRefsetFile, CategorySimpleRefset,
				rf2.SimpleRefsetSpec, l.config.Concept, nil, s.InsertRefsetMembers)
		})
	}

	if catalog.LanguageRefsetFile != "" {
		tasks = append(tasks, func(ctx context.Context) error {
			return loadRecords(ctx, s, catalog.LanguageRefsetFile, CategoryLanguageRefset,
				rf2.LanguageRefsetSpec, l.config.Concept, nil, s.InsertLanguageMembers)
		})
	}

	if catalog.MRCMDomainFile != "" {
		tasks = append(tasks, func(ctx context.Context) error {
			return loadRecords(ctx, s, catalog.MRCMDomainFile, CategoryMRCMDomain,
				rf2.MRCMDomainSpec, l.config.Concept, nil,
				func(batch []snomed.MRCMDomain) error {
					s.mrcm.InsertDomains(batch)
					return nil
				})
		})
	}
	if catalog.MRCMAttributeDomainFile != "" {
		tasks = append(tasks, func(ctx context.Context) error {
			return loadRecords(ctx, s, catalog.MRCMAttributeDomainFile, CategoryMRCMAttrDomain,
				rf2.MRCMAttributeDomainSpec, l.config.Concept, nil,
				func(batch []snomed.MRCMAttributeDomain) error {
					s.mrcm.InsertAttributeDomains(batch)
					return nil
				})
		})
	}
	if catalog.MRCMAttributeRangeFile != "" {
		tasks = append(tasks, func(ctx context.Context) error {
			return loadRecords(ctx, s, catalog.MRCMAttributeRangeFile, CategoryMRCMAttrRange,
				rf2.MRCMAttributeRangeSpec, l.config.Concept, nil,
				func(batch []snomed.MRCMAttributeRange) error {
					s.mrcm.InsertAttributeRanges(batch)
					return nil
				})
		})
	}

	return tasks
}

// loadRecords streams one file in batches into a store insert function,
// then records the file's statistics.
func loadRecords[T any](
	ctx context.Context,
	s *Store,
	path, category string,
	spec rf2.Spec[T],
	config rf2.Config,
	filters []rf2.RowFilter[T],
	insert func([]T) error,
) error {
	reader, closer, err := rf2.Open(path, spec, config, filters...)
	if err != nil {
		return err
	}
	defer closer.Close()

	_, err = reader.Batches(func(batch []T) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.WrapResource(ctxErr, "Loader", "loadRecords", "loading "+category)
		}
		return insert(batch)
	})
	s.setFileStats(category, FileStats{Path: path, Stats: reader.Stats()})
	return err
}
