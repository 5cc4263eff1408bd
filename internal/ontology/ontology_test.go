package ontology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "veritrail/pkg/domain"
	dErrors "veritrail/pkg/domain-errors"
)

func testNodes() []Node {
	return []Node{
		{ID: "std-root", Label: "Institutional Effectiveness", Domain: DomainGovernance, Children: []id.StandardID{"std-1"}},
		{ID: "std-1", Label: "Program Assessment", Domain: DomainAcademic, Parent: "std-root", Children: []id.StandardID{"std-1a"}},
		{ID: "std-1a", Label: "Learning Outcomes", Domain: DomainAcademic, Parent: "std-1", RelatedConcepts: []id.StandardID{"std-2"}},
		{ID: "std-2", Label: "Faculty Qualifications", Domain: DomainAcademic, Parent: "std-root"},
	}
}

func TestNew(t *testing.T) {
	t.Run("builds graph from valid nodes", func(t *testing.T) {
		ont, err := New(testNodes())
		require.NoError(t, err)
		assert.Equal(t, 4, ont.Len())
		assert.Equal(t, "Program Assessment", ont.Get("std-1").Label)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		nodes := []Node{
			{ID: "std-1", Label: "A", Domain: DomainAcademic},
			{ID: "std-1", Label: "B", Domain: DomainAcademic},
		}
		_, err := New(nodes)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects dangling parent", func(t *testing.T) {
		_, err := New([]Node{{ID: "std-1", Label: "A", Domain: DomainAcademic, Parent: "missing"}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects unknown domain", func(t *testing.T) {
		_, err := New([]Node{{ID: "std-1", Label: "A", Domain: "martian"}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestAncestors(t *testing.T) {
	ont, err := New(testNodes())
	require.NoError(t, err)

	t.Run("returns chain nearest first", func(t *testing.T) {
		assert.Equal(t, []id.StandardID{"std-1", "std-root"}, ont.Ancestors("std-1a"))
	})

	t.Run("root has no ancestors", func(t *testing.T) {
		assert.Empty(t, ont.Ancestors("std-root"))
	})

	t.Run("unknown node has no ancestors", func(t *testing.T) {
		assert.Empty(t, ont.Ancestors("nope"))
	})
}

func TestGet_AbsentReturnsNil(t *testing.T) {
	ont, err := New(testNodes())
	require.NoError(t, err)
	assert.Nil(t, ont.Get("not-there"))
}

func TestLoad(t *testing.T) {
	doc := `
nodes:
  - id: std-9
    label: Data Governance
    domain: governance
    required_evidence_types: [policy, audit_report]
    quality_threshold: 0.6
    assessment_frequency: annual
    compliance_criticality: 0.9
    embedding: [0.1, 0.2, 0.3]
  - id: std-9a
    label: Records Retention
    domain: governance
    parent: std-9
`
	ont, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, ont.Len())

	n := ont.Get("std-9")
	require.NotNil(t, n)
	assert.Equal(t, []string{"policy", "audit_report"}, n.RequiredEvidenceTypes)
	assert.Equal(t, FrequencyAnnual, n.AssessmentFrequency)
	assert.Len(t, n.Embedding, 3)
	assert.Equal(t, []id.StandardID{"std-9"}, ont.Ancestors("std-9a"))
}

func TestLoad_NormalizesEvidenceTypes(t *testing.T) {
	doc := `
nodes:
  - id: std-9
    label: Data Governance
    domain: governance
    required_evidence_types: ["  Policy ", "policy", "audit_report", ""]
`
	ont, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	n := ont.Get("std-9")
	require.NotNil(t, n)
	assert.Equal(t, []string{"policy", "audit_report"}, n.RequiredEvidenceTypes)
}

func TestLoad_EmptyDocument(t *testing.T) {
	_, err := Load(strings.NewReader("nodes: []"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
