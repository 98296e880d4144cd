package sign

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Canonicalize serializes el per a constrained subset of C14N 1.0
// (inclusive): attributes, including namespace declarations, are sorted
// into a deterministic order; empty elements are expanded into start/end
// tag pairs; no XML declaration or comments are emitted. EBICS only ever
// canonicalizes an already-isolated fragment (a SignedInfo element built in
// memory, or a node extracted and namespace-completed by prepareFragment),
// so the full W3C algorithm's document-wide namespace bookkeeping is not
// needed here.
func Canonicalize(el *etree.Element) []byte {
	var buf strings.Builder
	writeElementC14N(&buf, el)
	return []byte(buf.String())
}

func writeElementC14N(buf *strings.Builder, el *etree.Element) {
	name := qualifiedName(el.Space, el.Tag)
	buf.WriteByte('<')
	buf.WriteString(name)

	attrs := append([]etree.Attr{}, el.Attr...)
	sort.Slice(attrs, func(i, j int) bool {
		return attrSortKey(attrs[i]) < attrSortKey(attrs[j])
	})
	for _, a := range attrs {
		buf.WriteByte(' ')
		buf.WriteString(qualifiedName(a.Space, a.Key))
		buf.WriteString(`="`)
		buf.WriteString(escapeAttrValue(a.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')

	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.Element:
			writeElementC14N(buf, c)
		case *etree.CharData:
			buf.WriteString(escapeText(c.Data))
		}
	}

	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
}

func qualifiedName(space, tag string) string {
	if space == "" {
		return tag
	}
	return space + ":" + tag
}

// attrSortKey orders namespace declarations before ordinary attributes (as
// C14N requires), and within each group orders lexicographically by
// qualified name.
func attrSortKey(a etree.Attr) string {
	if isNamespaceDecl(a) {
		return "\x00" + qualifiedName(a.Space, a.Key)
	}
	return "\x01" + qualifiedName(a.Space, a.Key)
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Key == "xmlns" || a.Space == "xmlns"
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	return r.Replace(s)
}

func escapeAttrValue(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
	return r.Replace(s)
}
