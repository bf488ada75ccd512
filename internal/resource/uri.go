// Package resource encodes table resources as URIs and guards which schemas
// may be read through them.
package resource

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/shakram02/sql-schema-mcp/internal/errors"
)

// Marker is the trailing path segment identifying a table-schema resource.
const Marker = "schema"

// MIMEType is the content type of every table-schema resource.
const MIMEType = "application/json"

// Ref identifies a table addressed by a resource URI.
type Ref struct {
	Schema string
	Table  string
}

func (r Ref) String() string { return r.Schema + "." + r.Table }

// Codec builds and parses resource URIs of the form
// <base>/<schema>/<table>/schema.
type Codec struct {
	base string
}

// NewCodec returns a codec rooted at base. The password, query and fragment
// of base are dropped so connection secrets never leak into a resource URI.
func NewCodec(base string) (*Codec, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid resource base: %w", err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("resource base %q must be an absolute URI", base)
	}
	if u.Opaque != "" {
		return nil, fmt.Errorf("resource base %q must be hierarchical", base)
	}
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			u.User = url.User(name)
		} else {
			u.User = nil
		}
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return &Codec{base: strings.TrimSuffix(u.String(), "/")}, nil
}

// Base returns the credential-free base URI.
func (c *Codec) Base() string { return c.base }

// Build returns the resource URI for schema.table.
func (c *Codec) Build(schema, table string) string {
	return c.base + "/" + url.PathEscape(schema) + "/" + url.PathEscape(table) + "/" + Marker
}

// Parse decodes a resource URI, reading schema, table and marker from the
// end of its path.
func (c *Codec) Parse(uri string) (Ref, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Ref{}, apperrors.Wrap(apperrors.InvalidResourceURI, "cannot parse resource URI", err)
	}

	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if len(segments) < 3 {
		return Ref{}, apperrors.New(apperrors.InvalidResourceURI,
			fmt.Sprintf("resource URI %q must end with /<schema>/<table>/%s", uri, Marker))
	}

	n := len(segments)
	marker, err := url.PathUnescape(segments[n-1])
	if err != nil || marker != Marker {
		return Ref{}, apperrors.New(apperrors.InvalidResourceURI,
			fmt.Sprintf("resource URI %q must end with /%s", uri, Marker))
	}
	table, err := url.PathUnescape(segments[n-2])
	if err != nil {
		return Ref{}, apperrors.Wrap(apperrors.InvalidResourceURI, "invalid table segment", err)
	}
	schema, err := url.PathUnescape(segments[n-3])
	if err != nil {
		return Ref{}, apperrors.Wrap(apperrors.InvalidResourceURI, "invalid schema segment", err)
	}

	return Ref{Schema: schema, Table: table}, nil
}
