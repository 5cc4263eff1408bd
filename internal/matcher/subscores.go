package matcher

import (
	"time"

	"veritrail/internal/ontology"
	id "veritrail/pkg/domain"
	"veritrail/pkg/vecmath"
)

// This file computes the five raw sub-scores. Each function is pure over its
// inputs and returns a value in [0, 1]; missing optional data degrades to a
// documented neutral value rather than erroring.

const (
	contentEmbeddingShare = 0.80
	titleEmbeddingShare   = 0.20
	domainMatchBoost      = 1.10

	inferredConceptWeight = 0.70

	exactConceptCredit    = 1.00
	parentConceptCredit   = 0.80
	ancestorConceptCredit = 0.50
	relatedConceptCredit  = 0.40
)

// crossDomainAdjacency is the curated table of domain pairs that routinely
// share evidence. Symmetric; only one direction is listed.
var crossDomainAdjacency = map[ontology.Domain][]ontology.Domain{
	ontology.DomainAcademic:   {ontology.DomainResearch, ontology.DomainStudentServices},
	ontology.DomainGovernance: {ontology.DomainFinancial, ontology.DomainInfrastructure},
	ontology.DomainFinancial:  {ontology.DomainInfrastructure},
	ontology.DomainResearch:   {ontology.DomainGovernance},
}

// evidenceTypeCompatibility maps evidence types that commonly substitute for
// a required type without being an exact match.
var evidenceTypeCompatibility = map[string][]string{
	"policy":       {"procedure", "handbook"},
	"procedure":    {"policy"},
	"audit_report": {"report", "assessment"},
	"report":       {"audit_report", "minutes"},
	"syllabus":     {"curriculum_map", "course_outline"},
	"assessment":   {"survey", "rubric"},
	"minutes":      {"report"},
}

// semanticScore combines content (80%) and title (20%) embedding similarity
// against the standard's embedding. A domain tag matching the standard's
// domain boosts the result up to 10%. Missing embeddings on either side
// degrade the score toward 0.
func semanticScore(ev Evidence, node *ontology.Node) float64 {
	if len(node.Embedding) == 0 {
		return 0
	}

	content := vecmath.Clamp01(vecmath.Cosine(ev.ContentEmbedding, node.Embedding))
	title := vecmath.Clamp01(vecmath.Cosine(ev.TitleEmbedding, node.Embedding))

	score := contentEmbeddingShare*content + titleEmbeddingShare*title

	for _, tag := range ev.DomainTags {
		if tag == node.Domain {
			score *= domainMatchBoost
			break
		}
	}
	return vecmath.Clamp01(score)
}

// hierarchyScore credits overlap between the evidence's mapped and inferred
// concepts and the standard's position in the ontology. Inferred concepts
// count at 0.7× a direct mapping. The total is normalized by the number of
// evidence concepts considered.
func hierarchyScore(ev Evidence, node *ontology.Node, ont *ontology.Ontology) float64 {
	total := len(ev.MappedConcepts) + len(ev.InferredConcepts)
	if total == 0 {
		return 0
	}

	ancestors := make(map[id.StandardID]bool)
	for _, a := range ont.Ancestors(node.ID) {
		ancestors[a] = true
	}
	related := make(map[id.StandardID]bool)
	for _, r := range node.RelatedConcepts {
		related[r] = true
	}

	credit := func(concept id.StandardID) float64 {
		switch {
		case concept == node.ID:
			return exactConceptCredit
		case concept == node.Parent:
			return parentConceptCredit
		case ancestors[concept]:
			return ancestorConceptCredit
		case related[concept]:
			return relatedConceptCredit
		}
		return 0
	}

	var sum float64
	for _, c := range ev.MappedConcepts {
		sum += credit(c)
	}
	for _, c := range ev.InferredConcepts {
		sum += inferredConceptWeight * credit(c)
	}

	return vecmath.Clamp01(sum / float64(total))
}

// domainScore compares evidence domain tags with the standard's domain:
// exact 1.0, curated adjacency 0.7, otherwise 0.2. Untagged evidence gets a
// neutral 0.5.
func domainScore(ev Evidence, node *ontology.Node) float64 {
	if len(ev.DomainTags) == 0 {
		return 0.5
	}

	best := 0.2
	for _, tag := range ev.DomainTags {
		if tag == node.Domain {
			return 1.0
		}
		if domainsAdjacent(tag, node.Domain) && best < 0.7 {
			best = 0.7
		}
	}
	return best
}

func domainsAdjacent(a, b ontology.Domain) bool {
	for _, adj := range crossDomainAdjacency[a] {
		if adj == b {
			return true
		}
	}
	for _, adj := range crossDomainAdjacency[b] {
		if adj == a {
			return true
		}
	}
	return false
}

// evidenceTypeScore checks the evidence type against the standard's required
// set: an exact match scores 0.85 plus up to 0.15 from the document quality
// score, a compatible type 0.7, anything else 0.3. Standards without
// required types return a neutral 0.5.
func evidenceTypeScore(ev Evidence, node *ontology.Node) float64 {
	if len(node.RequiredEvidenceTypes) == 0 {
		return 0.5
	}

	for _, required := range node.RequiredEvidenceTypes {
		if ev.Type == required {
			return vecmath.Clamp01(0.85 + 0.15*vecmath.Clamp01(ev.QualityScore))
		}
	}
	for _, required := range node.RequiredEvidenceTypes {
		for _, compat := range evidenceTypeCompatibility[required] {
			if ev.Type == compat {
				return 0.7
			}
		}
	}
	return 0.3
}

// temporalScore is a step function of evidence age, further discounted when
// the standard's assessment cadence has lapsed since collection.
func temporalScore(ev Evidence, node *ontology.Node, now time.Time) float64 {
	if ev.CollectedAt.IsZero() {
		return 0.5
	}

	ageDays := now.Sub(ev.CollectedAt).Hours() / 24

	var score float64
	switch {
	case ageDays <= 30:
		score = 1.0
	case ageDays <= 90:
		score = 0.9
	case ageDays <= 180:
		score = 0.8
	case ageDays <= 365:
		score = 0.6
	case ageDays <= 730:
		score = 0.4
	case ageDays <= 1095:
		score = 0.3
	default:
		score = 0.2
	}

	switch node.AssessmentFrequency {
	case ontology.FrequencyAnnual:
		if ageDays > 365 {
			score *= 0.7
		}
	case ontology.FrequencyTriennial:
		if ageDays > 1095 {
			score *= 0.7
		}
	}

	return vecmath.Clamp01(score)
}
