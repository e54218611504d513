/*
Copyright The Modfetch Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metadata models the per-module metadata document published by a
// repository: the known versions of a module and which of them are the
// current "latest" and "release" versions.
//
// The wire format is the maven-metadata.xml dialect, reproduced exactly for
// interop with existing repositories.
package metadata // import "github.com/modfetch/modfetch/pkg/metadata"

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// lastUpdatedFormat is the compact numeric timestamp used by the
// lastUpdated element, e.g. 20240131093045.
const lastUpdatedFormat = "20060102150405"

// FileName is the name of the metadata document within a module's directory.
const FileName = "maven-metadata.xml"

// Metadata is the typed view over a repository's per-module metadata
// document.
type Metadata struct {
	XMLName    xml.Name   `xml:"metadata"`
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Versioning Versioning `xml:"versioning"`
}

// Versioning is the versioning block of the metadata document. Versions
// preserves the document's declaration order.
type Versioning struct {
	Latest      string   `xml:"latest"`
	Release     string   `xml:"release"`
	Versions    []string `xml:"versions>version"`
	LastUpdated string   `xml:"lastUpdated"`
}

// MalformedError is returned when a metadata document is structurally
// invalid.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed repository metadata: " + e.Reason
}

// Parse deserializes a metadata document and validates its required fields.
func Parse(data []byte) (*Metadata, error) {
	var m Metadata
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, &MalformedError{Reason: err.Error()}
	}
	if m.GroupID == "" {
		return nil, &MalformedError{Reason: "missing groupId"}
	}
	if m.ArtifactID == "" {
		return nil, &MalformedError{Reason: "missing artifactId"}
	}
	if m.Versioning.LastUpdated != "" {
		if _, err := time.Parse(lastUpdatedFormat, m.Versioning.LastUpdated); err != nil {
			return nil, &MalformedError{Reason: fmt.Sprintf("unparseable lastUpdated %q", m.Versioning.LastUpdated)}
		}
	}
	return &m, nil
}

// Marshal serializes the metadata back into the document format Parse
// accepts, preserving version order.
func (m *Metadata) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// UpdatedAt returns the parsed lastUpdated timestamp in UTC. The zero time is
// returned when the element is absent.
func (v Versioning) UpdatedAt() time.Time {
	if v.LastUpdated == "" {
		return time.Time{}
	}
	t, err := time.Parse(lastUpdatedFormat, v.LastUpdated)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// FormatUpdated renders a timestamp the way the lastUpdated element expects.
func FormatUpdated(t time.Time) string {
	return t.UTC().Format(lastUpdatedFormat)
}
