package ontology

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	dErrors "veritrail/pkg/domain-errors"
	pstrings "veritrail/pkg/platform/strings"
)

// document is the YAML shape consumed from the ontology collaborator.
type document struct {
	Nodes []Node `yaml:"nodes"`
}

// Load reads an ontology node list from YAML and builds the graph.
func Load(r io.Reader) (*Ontology, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read ontology document")
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "parse ontology document")
	}
	if len(doc.Nodes) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ontology document has no nodes")
	}

	// Hand-maintained YAML accumulates duplicate and padded entries.
	for i := range doc.Nodes {
		doc.Nodes[i].RequiredEvidenceTypes = pstrings.DedupeAndTrimLower(doc.Nodes[i].RequiredEvidenceTypes)
	}

	return New(doc.Nodes)
}

// LoadFile reads an ontology from a YAML file on disk.
func LoadFile(path string) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "open ontology file")
	}
	defer f.Close()

	return Load(f)
}
