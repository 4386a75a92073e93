// Package declfile reads context declarations written by the declaration extractor.
//
// The document is YAML; JSON documents are accepted as well since JSON is valid YAML:
//
//	contexts:
//	  - name: example.com/app.CtxMain
//	    strict: true
//	    dependencies: [example.com/app.CtxMainModule, time.Location]
//	    beans:
//	      - type: example.com/app.ObjectMapper
//	        method: buildMapper
//	        requires: [time.Location]
//
// Pointer and slice types must be quoted ("*example.com/app.Mapper"): an unquoted leading '*'
// is a YAML alias. Unknown keys are rejected so that typos in the extractor's output fail loudly.
package declfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Station-Manager/wireplan"
	"gopkg.in/yaml.v3"
)

var ErrEmptyDocument = errors.New("declfile: document declares no contexts")

// Document is the top-level shape of a declaration file.
type Document struct {
	Contexts []wireplan.ContextDescriptor `yaml:"contexts" json:"contexts"`
}

// Decode parses one declaration document.
func Decode(r io.Reader) ([]wireplan.ContextDescriptor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("declfile: decode: %w", err)
	}
	if len(doc.Contexts) == 0 {
		return nil, ErrEmptyDocument
	}
	return doc.Contexts, nil
}

// Parse decodes a document held in memory.
func Parse(raw []byte) ([]wireplan.ContextDescriptor, error) {
	return Decode(bytes.NewReader(raw))
}

// Load reads and decodes the declaration file at path.
func Load(path string) ([]wireplan.ContextDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("declfile: open: %w", err)
	}
	defer f.Close()

	decls, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return decls, nil
}
