package ontology

import (
	id "veritrail/pkg/domain"
)

// Domain groups concepts by institutional area.
type Domain string

const (
	DomainAcademic        Domain = "academic"
	DomainGovernance      Domain = "governance"
	DomainFinancial       Domain = "financial"
	DomainStudentServices Domain = "student_services"
	DomainInfrastructure  Domain = "infrastructure"
	DomainResearch        Domain = "research"
)

// IsValid reports whether d is a known domain value.
func (d Domain) IsValid() bool {
	switch d {
	case DomainAcademic, DomainGovernance, DomainFinancial,
		DomainStudentServices, DomainInfrastructure, DomainResearch:
		return true
	}
	return false
}

// AssessmentFrequency is the review cadence attached to a standard.
type AssessmentFrequency string

const (
	FrequencyContinuous AssessmentFrequency = "continuous"
	FrequencyAnnual     AssessmentFrequency = "annual"
	FrequencyTriennial  AssessmentFrequency = "triennial"
)

// Node is one concept in the compliance ontology. Nodes are immutable after
// load; scoring code only ever reads them.
type Node struct {
	ID                    id.StandardID       `yaml:"id"`
	Label                 string              `yaml:"label"`
	Domain                Domain              `yaml:"domain"`
	Parent                id.StandardID       `yaml:"parent,omitempty"`
	Children              []id.StandardID     `yaml:"children,omitempty"`
	Synonyms              []string            `yaml:"synonyms,omitempty"`
	RelatedConcepts       []id.StandardID     `yaml:"related_concepts,omitempty"`
	RequiredEvidenceTypes []string            `yaml:"required_evidence_types,omitempty"`
	QualityThreshold      float64             `yaml:"quality_threshold"`
	AssessmentFrequency   AssessmentFrequency `yaml:"assessment_frequency,omitempty"`
	ComplianceCriticality float64             `yaml:"compliance_criticality"`
	Embedding             []float64           `yaml:"embedding,omitempty"`
}
