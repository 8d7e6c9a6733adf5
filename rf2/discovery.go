package rf2

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360/termgraph/errors"
)

// maxWalkDepth bounds the recursive walk of a release tree. Real releases
// nest four levels (Release/Snapshot/Terminology/file).
const maxWalkDepth = 8

// Catalog names the RF2 files discovered under a release directory. Paths
// are absolute. Optional entries are empty strings when absent.
type Catalog struct {
	ConceptFile             string `json:"concept_file"`
	DescriptionFile         string `json:"description_file"`
	RelationshipFile        string `json:"relationship_file"`
	StatedRelationshipFile  string `json:"stated_relationship_file"`
	TextDefinitionFile      string `json:"text_definition_file"`
	SimpleRefsetFile        string `json:"simple_refset_file"`
	LanguageRefsetFile      string `json:"language_refset_file"`
	MRCMDomainFile          string `json:"mrcm_domain_file"`
	MRCMAttributeDomainFile string `json:"mrcm_attribute_domain_file"`
	MRCMAttributeRangeFile  string `json:"mrcm_attribute_range_file"`
	ReleaseDate             string `json:"release_date"` // YYYYMMDD
}

// HasMRCM reports whether at least one MRCM file was found.
func (c Catalog) HasMRCM() bool {
	return c.MRCMDomainFile != "" || c.MRCMAttributeDomainFile != "" ||
		c.MRCMAttributeRangeFile != ""
}

// missingRequired lists absent required categories.
func (c Catalog) missingRequired() []string {
	var missing []string
	if c.ConceptFile == "" {
		missing = append(missing, "concept")
	}
	if c.DescriptionFile == "" {
		missing = append(missing, "description")
	}
	if c.RelationshipFile == "" {
		missing = append(missing, "relationship")
	}
	return missing
}

// Discover walks a release directory and classifies its RF2 files by
// filename prefix (case-insensitive). When several files match one
// category, the lexicographically greatest name wins, which selects the
// newest release. Concept, description, and relationship files are
// required.
func Discover(dir string) (Catalog, error) {
	var catalog Catalog

	abs, err := filepath.Abs(dir)
	if err != nil {
		return catalog, errors.WrapConfiguration(err, "Discover", "Discover", "resolving "+dir)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return catalog, errors.WrapConfiguration(
			fmt.Errorf("%w: %s", errors.ErrDirectoryNotFound, dir),
			"Discover", "Discover", "opening release directory")
	}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(abs, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if depth(rel) >= maxWalkDepth {
				return fs.SkipDir
			}
			return nil
		}
		classify(&catalog, path, d.Name())
		return nil
	})
	if err != nil {
		return catalog, errors.WrapConfiguration(err, "Discover", "Discover", "walking "+dir)
	}

	if missing := catalog.missingRequired(); len(missing) > 0 {
		return catalog, errors.WrapConfiguration(
			fmt.Errorf("%w: %s in %s", errors.ErrRequiredFileMissing,
				strings.Join(missing, ", "), dir),
			"Discover", "Discover", "checking required files")
	}

	if catalog.ReleaseDate == "" {
		catalog.ReleaseDate = extractReleaseDate(filepath.Base(catalog.ConceptFile))
	}
	return catalog, nil
}

func depth(rel string) int {
	if rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// classify assigns a leaf file to its catalog slot, newest name winning.
func classify(catalog *Catalog, path, name string) {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".txt") {
		return
	}

	switch {
	case hasPrefix(lower, "sct2_concept_snapshot"):
		pick(&catalog.ConceptFile, path)
	case hasPrefix(lower, "sct2_description_snapshot"):
		pick(&catalog.DescriptionFile, path)
	case hasPrefix(lower, "sct2_statedrelationship_snapshot"):
		pick(&catalog.StatedRelationshipFile, path)
	case hasPrefix(lower, "sct2_relationship_snapshot"):
		pick(&catalog.RelationshipFile, path)
	case hasPrefix(lower, "sct2_textdefinition_snapshot"):
		pick(&catalog.TextDefinitionFile, path)
	case hasPrefix(lower, "der2_refset_simple"):
		pick(&catalog.SimpleRefsetFile, path)
	case hasPrefix(lower, "der2_crefset_language"):
		pick(&catalog.LanguageRefsetFile, path)
	case hasPrefix(lower, "der2_crefset_mrcmdomain") && !strings.Contains(lower, "modulescope"):
		pick(&catalog.MRCMDomainFile, path)
	case hasPrefix(lower, "der2_cissccrefset_mrcmattributedomain"):
		pick(&catalog.MRCMAttributeDomainFile, path)
	case hasPrefix(lower, "der2_ssccrefset_mrcmattributerange"):
		pick(&catalog.MRCMAttributeRangeFile, path)
	}
}

func hasPrefix(lowerName, lowerPrefix string) bool {
	return strings.HasPrefix(lowerName, lowerPrefix)
}

// pick keeps the lexicographically greatest base filename in slot.
func pick(slot *string, path string) {
	if *slot == "" || filepath.Base(path) > filepath.Base(*slot) {
		*slot = path
	}
}

// extractReleaseDate pulls the YYYYMMDD token from an RF2 filename like
// sct2_Concept_Snapshot_INT_20250201.txt. Returns "" when absent.
func extractReleaseDate(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(base, "_")
	last := parts[len(parts)-1]
	if len(last) != 8 {
		return ""
	}
	for _, r := range last {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return last
}
