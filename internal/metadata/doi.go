// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"regexp"
	"strings"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// doiPattern matches a DOI anywhere in running text, including inside a
// https://doi.org/ URL: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`\b10\.\d{4,9}/[^\s"<>]+`)

// doiSearchPages bounds the pattern scan. Published articles carry the
// DOI on the first page or in the front matter, so scanning further only
// picks up DOIs of cited works.
const doiSearchPages = 2

// doiSource scans the opening pages for a DOI. It contributes only the
// DOI field; the CrossRef source turns it into full bibliographic data.
type doiSource struct{}

func (doiSource) Name() string { return types.SourceDOIPattern }

func (doiSource) Attempt(_ context.Context, doc *types.Document, _ types.MetadataRecord) (Fields, error) {
	limit := doiSearchPages
	if doc.PageCount < limit {
		limit = doc.PageCount
	}
	for n := 1; n <= limit; n++ {
		if m := doiPattern.FindString(doc.Page(n)); m != "" {
			return Fields{DOI: trimDOI(m)}, nil
		}
	}
	return Fields{}, errNoData
}

// trimDOI drops trailing punctuation that the pattern swallows when a
// DOI ends a sentence or sits inside brackets.
func trimDOI(doi string) string {
	return strings.TrimRight(doi, ".,;:)]}")
}

// DOIURL returns the canonical https://doi.org/ resolver URL for a DOI.
// Already-resolved URLs and "doi:" prefixed forms are normalized first.
func DOIURL(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return ""
	}
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if rest := strings.TrimPrefix(doi, prefix); rest != doi {
			doi = rest
			break
		}
	}
	return "https://doi.org/" + doi
}
