package rf2

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/snomed"
)

const conceptHeader = "id\teffectiveTime\tactive\tmoduleId\tdefinitionStatusId"

func conceptRow(id, active string) string {
	return id + "\t20250201\t" + active + "\t900000000000207008\t900000000000074008"
}

func newConceptReader(t *testing.T, content string, config Config, filters ...RowFilter[snomed.Concept]) *Reader[snomed.Concept] {
	t.Helper()
	reader, err := NewReader(strings.NewReader(content), ConceptSpec, config, filters...)
	require.NoError(t, err)
	return reader
}

func TestReader_ParsesConcepts(t *testing.T) {
	content := conceptHeader + "\n" +
		conceptRow("404684003", "1") + "\n" +
		conceptRow("73211009", "1") + "\n"

	reader := newConceptReader(t, content, DefaultConfig())

	first, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, snomed.SctID(404684003), first.ID)
	assert.Equal(t, uint32(20250201), first.EffectiveTime)
	assert.True(t, first.Active)
	assert.Equal(t, snomed.CoreModule, first.ModuleID)
	assert.True(t, first.IsPrimitive())

	second, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, snomed.SctID(73211009), second.ID)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)

	stats := reader.Stats()
	assert.Equal(t, 2, stats.LinesRead)
	assert.Equal(t, 2, stats.RecordsAccepted)
}

func TestReader_HeaderStrictness(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		sentinel error
	}{
		{
			"missing column",
			"id\teffectiveTime\tactive\tmoduleId",
			errors.ErrInvalidHeader,
		},
		{
			"extra column",
			conceptHeader + "\textra",
			errors.ErrInvalidHeader,
		},
		{
			"swapped columns",
			"effectiveTime\tid\tactive\tmoduleId\tdefinitionStatusId",
			errors.ErrUnexpectedColumn,
		},
		{
			"renamed column",
			"id\teffectiveTime\tactive\tmoduleId\tdefinitionStatus",
			errors.ErrUnexpectedColumn,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			content := test.header + "\n" + conceptRow("404684003", "1") + "\n"
			_, err := NewReader(strings.NewReader(content), ConceptSpec, DefaultConfig())
			require.Error(t, err)
			assert.ErrorIs(t, err, test.sentinel)

			kind, ok := errors.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, errors.KindFormat, kind)
		})
	}
}

func TestReader_HeaderWithBOMAndCRLF(t *testing.T) {
	content := "\ufeff" + conceptHeader + "\r\n" + conceptRow("404684003", "1") + "\r\n"
	reader := newConceptReader(t, content, DefaultConfig())

	concept, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, snomed.SctID(404684003), concept.ID)
}

func TestReader_DecodeErrorsAreCountedAndSkipped(t *testing.T) {
	content := conceptHeader + "\n" +
		conceptRow("not_a_number", "1") + "\n" + // bad SCTID
		conceptRow("0", "1") + "\n" + // reserved zero
		conceptRow("404684003", "2") + "\n" + // bad boolean
		"73211009\t2025-02-01\t1\t900000000000207008\t900000000000074008\n" + // bad date
		conceptRow("73211009", "1") + "\n"

	reader := newConceptReader(t, content, DefaultConfig())
	all, err := reader.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, snomed.SctID(73211009), all[0].ID)

	stats := reader.Stats()
	assert.Equal(t, 5, stats.LinesRead)
	assert.Equal(t, 4, stats.RecordsDroppedByDecodeError)
	assert.Equal(t, 1, stats.RecordsAccepted)
}

func TestReader_FieldCountMismatchAborts(t *testing.T) {
	content := conceptHeader + "\n" +
		conceptRow("404684003", "1") + "\textra_field\n"

	reader := newConceptReader(t, content, DefaultConfig())
	_, err := reader.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrColumnCount)
}

func TestReader_ActiveOnlyFilter(t *testing.T) {
	content := conceptHeader + "\n" +
		conceptRow("404684003", "1") + "\n" +
		conceptRow("73211009", "0") + "\n"

	reader := newConceptReader(t, content, DefaultConfig())
	all, err := reader.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, reader.Stats().RecordsDroppedByFilter)

	// Filtering disabled keeps inactive rows.
	reader = newConceptReader(t, content, Config{ActiveOnly: false, BatchSize: 10})
	all, err = reader.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReader_BlankLinesIgnored(t *testing.T) {
	content := conceptHeader + "\n" +
		conceptRow("404684003", "1") + "\n\n\n"

	reader := newConceptReader(t, content, DefaultConfig())
	all, err := reader.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1, reader.Stats().LinesRead)
}

func TestReader_Batches(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(conceptHeader + "\n")
	ids := []string{"100014", "100022", "100031", "100049", "100058"}
	for _, id := range ids {
		sb.WriteString(conceptRow(id, "1") + "\n")
	}

	reader := newConceptReader(t, sb.String(), Config{ActiveOnly: true, BatchSize: 2})

	var batches [][]snomed.Concept
	total, err := reader.Batches(func(batch []snomed.Concept) error {
		copied := make([]snomed.Concept, len(batch))
		copy(copied, batch)
		batches = append(batches, copied)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)
}

func TestReader_DescriptionFilters(t *testing.T) {
	header := strings.Join(DescriptionSpec.Columns, "\t")
	row := func(id, lang, typeID string) string {
		return id + "\t20250201\t1\t900000000000207008\t73211009\t" + lang +
			"\t" + typeID + "\tDiabetes mellitus (disorder)\t900000000000448009"
	}
	content := header + "\n" +
		row("100012", "en", "900000000000003001") + "\n" +
		row("100020", "sv", "900000000000003001") + "\n" +
		row("100039", "en", "900000000000550004") + "\n"

	config := EnglishTerms()
	reader, err := NewReader(strings.NewReader(content), DescriptionSpec,
		config.Base, DescriptionFilters(config)...)
	require.NoError(t, err)

	all, err := reader.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, snomed.SctID(100012), all[0].ID)
	assert.True(t, all[0].IsFSN())
	assert.Equal(t, 2, reader.Stats().RecordsDroppedByFilter)
}

func TestReader_RelationshipFilters(t *testing.T) {
	header := strings.Join(RelationshipSpec.Columns, "\t")
	row := func(id, typeID, charTypeID string) string {
		return id + "\t20250201\t1\t900000000000207008\t73211009\t64572001\t0\t" +
			typeID + "\t" + charTypeID + "\t900000000000451002"
	}
	content := header + "\n" +
		row("100015", "116680003", "900000000000011006") + "\n" + // inferred IS_A
		row("100023", "116680003", "900000000000010007") + "\n" + // stated IS_A
		row("100031", "363698007", "900000000000011006") + "\n" // inferred finding site

	config := InferredOnly()
	reader, err := NewReader(strings.NewReader(content), RelationshipSpec,
		config.Base, RelationshipFilters(config)...)
	require.NoError(t, err)

	all, err := reader.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, rel := range all {
		assert.True(t, rel.IsInferred())
	}

	config = IsAOnly()
	reader, err = NewReader(strings.NewReader(content), RelationshipSpec,
		config.Base, RelationshipFilters(config)...)
	require.NoError(t, err)
	all, err = reader.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, rel := range all {
		assert.True(t, rel.IsIsA())
	}
}

func TestReader_FilterIdempotence(t *testing.T) {
	content := conceptHeader + "\n" +
		conceptRow("404684003", "1") + "\n" +
		conceptRow("73211009", "0") + "\n"

	once := newConceptReader(t, content, DefaultConfig())
	onceRecords, err := once.All()
	require.NoError(t, err)

	activeFilter := func(c snomed.Concept) bool { return c.Active }
	twice := newConceptReader(t, content, DefaultConfig(), activeFilter)
	twiceRecords, err := twice.All()
	require.NoError(t, err)

	assert.Equal(t, onceRecords, twiceRecords)
}

func TestDecodeHelpers(t *testing.T) {
	id, err := DecodeSctID("900000000000207008")
	require.NoError(t, err)
	assert.Equal(t, snomed.SctID(900000000000207008), id)

	_, err = DecodeSctID("")
	assert.ErrorIs(t, err, errors.ErrInvalidSctID)
	_, err = DecodeSctID("0")
	assert.ErrorIs(t, err, errors.ErrInvalidSctID)
	_, err = DecodeSctID("-1")
	assert.ErrorIs(t, err, errors.ErrInvalidSctID)

	id, err = DecodeSctIDWithTerm("71388002 |Procedure (procedure)|")
	require.NoError(t, err)
	assert.Equal(t, snomed.Procedure, id)

	id, err = DecodeOptionalSctID("")
	require.NoError(t, err)
	assert.Equal(t, snomed.SctID(0), id)

	_, err = DecodeBool("true")
	assert.ErrorIs(t, err, errors.ErrInvalidBoolean)

	et, err := DecodeEffectiveTime("20250201")
	require.NoError(t, err)
	assert.Equal(t, uint32(20250201), et)
	_, err = DecodeEffectiveTime("2025020")
	assert.ErrorIs(t, err, errors.ErrInvalidDate)
	_, err = DecodeEffectiveTime("2025-0201")
	assert.ErrorIs(t, err, errors.ErrInvalidDate)

	// Length-only date validation: non-calendar dates are accepted.
	et, err = DecodeEffectiveTime("20251301")
	require.NoError(t, err)
	assert.Equal(t, uint32(20251301), et)
}

func TestRefsetSpecs(t *testing.T) {
	simpleContent := strings.Join(SimpleRefsetSpec.Columns, "\t") + "\n" +
		"12345678901\t20250201\t1\t900000000000207008\t723264001\t73211009\n"
	reader, err := NewReader(strings.NewReader(simpleContent), SimpleRefsetSpec, DefaultConfig())
	require.NoError(t, err)
	members, err := reader.All()
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, snomed.SctID(723264001), members[0].RefsetID)
	assert.Equal(t, snomed.SctID(73211009), members[0].ReferencedComponentID)

	langContent := strings.Join(LanguageRefsetSpec.Columns, "\t") + "\n" +
		"12345678901\t20250201\t1\t900000000000207008\t900000000000509007\t100012\t900000000000548007\n"
	langReader, err := NewReader(strings.NewReader(langContent), LanguageRefsetSpec, DefaultConfig())
	require.NoError(t, err)
	langMembers, err := langReader.All()
	require.NoError(t, err)
	require.Len(t, langMembers, 1)
	assert.True(t, langMembers[0].IsPreferred())
}

func TestMRCMSpecs(t *testing.T) {
	domainContent := strings.Join(MRCMDomainSpec.Columns, "\t") + "\n" +
		"550e8400-e29b-41d4-a716-446655440000\t20250201\t1\t900000000000012004\t723589008\t404684003" +
		"\t<< 404684003\t71388002 |Procedure (procedure)|\t<< 404684003\t\ttemplate-pre\ttemplate-post\thttps://example.org/guide\n"
	reader, err := NewReader(strings.NewReader(domainContent), MRCMDomainSpec, DefaultConfig())
	require.NoError(t, err)
	domains, err := reader.All()
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", domains[0].ID)
	assert.Equal(t, snomed.ClinicalFinding, domains[0].ReferencedComponentID)
	assert.Equal(t, snomed.Procedure, domains[0].ParentDomain)

	attrDomainContent := strings.Join(MRCMAttributeDomainSpec.Columns, "\t") + "\n" +
		"550e8400-e29b-41d4-a716-446655440001\t20250201\t1\t900000000000012004\t723604009\t363698007" +
		"\t404684003\t1\t0..*\t0..1\t723597001\t723596005\n"
	attrReader, err := NewReader(strings.NewReader(attrDomainContent), MRCMAttributeDomainSpec, DefaultConfig())
	require.NoError(t, err)
	attrDomains, err := attrReader.All()
	require.NoError(t, err)
	require.Len(t, attrDomains, 1)
	assert.True(t, attrDomains[0].Grouped)
	assert.True(t, attrDomains[0].IsMandatory())
	assert.Equal(t, snomed.FindingSite, attrDomains[0].ReferencedComponentID)

	rangeContent := strings.Join(MRCMAttributeRangeSpec.Columns, "\t") + "\n" +
		"550e8400-e29b-41d4-a716-446655440002\t20250201\t1\t900000000000012004\t723592007\t363698007" +
		"\t<< 123037004\t\t723597001\t723596005\n"
	rangeReader, err := NewReader(strings.NewReader(rangeContent), MRCMAttributeRangeSpec, DefaultConfig())
	require.NoError(t, err)
	ranges, err := rangeReader.All()
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, "<< 123037004", ranges[0].RangeConstraint)
}
