package rf2

import (
	"fmt"

	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/snomed"
)

// Config controls reading of any RF2 file.
type Config struct {
	// ActiveOnly drops rows with active=0 after decoding.
	ActiveOnly bool
	// BatchSize is the number of records handed to each Batches callback.
	BatchSize int
}

// DefaultConfig returns the reading defaults: active rows only, batches of
// ten thousand.
func DefaultConfig() Config {
	return Config{ActiveOnly: true, BatchSize: 10_000}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d",
			errors.ErrInvalidConfig, c.BatchSize)
	}
	return nil
}

// DescriptionConfig extends Config with description-specific filters.
// Empty filter slices accept everything.
type DescriptionConfig struct {
	Base          Config
	LanguageCodes []string
	TypeIDs       []snomed.SctID
}

// DefaultDescriptionConfig accepts English descriptions of every type.
func DefaultDescriptionConfig() DescriptionConfig {
	return DescriptionConfig{
		Base:          DefaultConfig(),
		LanguageCodes: []string{"en"},
	}
}

// EnglishTerms returns a config accepting only English FSNs and synonyms.
func EnglishTerms() DescriptionConfig {
	return DescriptionConfig{
		Base:          DefaultConfig(),
		LanguageCodes: []string{"en"},
		TypeIDs:       []snomed.SctID{snomed.FSNType, snomed.SynonymType},
	}
}

// RelationshipConfig extends Config with relationship-specific filters.
// Empty filter slices accept everything.
type RelationshipConfig struct {
	Base                  Config
	TypeIDs               []snomed.SctID
	CharacteristicTypeIDs []snomed.SctID
}

// InferredOnly returns a config accepting only inferred relationships.
func InferredOnly() RelationshipConfig {
	return RelationshipConfig{
		Base:                  DefaultConfig(),
		CharacteristicTypeIDs: []snomed.SctID{snomed.InferredRelationship},
	}
}

// IsAOnly returns a config accepting only IS_A relationships.
func IsAOnly() RelationshipConfig {
	return RelationshipConfig{
		Base:    DefaultConfig(),
		TypeIDs: []snomed.SctID{snomed.IsA},
	}
}

func containsID(ids []snomed.SctID, id snomed.SctID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsString(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
