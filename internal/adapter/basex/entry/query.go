package entry

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/basex"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// fieldPaths maps search fields to XPath expressions relative to $e.
var fieldPaths = map[string][]string{
	domain.SearchFieldHeadword:   {"$e/lexical-unit/form/text", "$e/citation/form/text"},
	domain.SearchFieldGloss:      {"$e/sense//gloss/text"},
	domain.SearchFieldDefinition: {"$e/sense//definition/form/text"},
	domain.SearchFieldExample:    {"$e/sense//example/form/text", "$e/sense//example/translation/form/text"},
	domain.SearchFieldNote:       {"$e//note/form/text"},
}

const headwordKey = "lower-case(string(($e/lexical-unit/form/text)[1]))"

// root returns the XPath of the LIFT root element in db.
func root(db string) string {
	return fmt.Sprintf("collection('%s')/lift", db)
}

// pageQuery builds the XQuery for List and Search. The result is a
// <page total="n"> element wrapping the requested slice of entries.
// Paging with subsequence over a total order (key, then id) keeps pages
// disjoint.
func pageQuery(db string, f domain.EntryFilter) string {
	var b strings.Builder
	b.WriteString("declare variable $q external;\n")
	b.WriteString("declare variable $offset external;\n")
	b.WriteString("declare variable $limit external;\n")
	b.WriteString("let $needle := lower-case(normalize-space($q))\n")
	fmt.Fprintf(&b, "let $hits := for $e in %s/entry\n", root(db))

	var paths []string
	for _, field := range searchFields(f.Fields) {
		paths = append(paths, fieldPaths[field]...)
	}
	fmt.Fprintf(&b, "  where $needle = '' or (some $t in (%s) satisfies contains(lower-case($t), $needle))\n",
		strings.Join(paths, ", "))

	key := headwordKey
	if f.SortBy == "date_modified" {
		key = "string($e/@dateModified)"
	}
	dir := "ascending"
	if strings.EqualFold(f.SortOrder, "DESC") {
		dir = "descending"
	}
	fmt.Fprintf(&b, "  order by %s %s empty least, string($e/@id) %s\n", key, dir, dir)
	b.WriteString("  return $e\n")
	b.WriteString("return <page total=\"{count($hits)}\">{subsequence($hits, xs:integer($offset) + 1, xs:integer($limit))}</page>")
	return b.String()
}

func searchFields(fields []string) []string {
	var out []string
	for _, f := range fields {
		if _, ok := fieldPaths[f]; ok {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{domain.SearchFieldHeadword}
	}
	return out
}

func getQuery(db string) string {
	return fmt.Sprintf("declare variable $id external;\n(%s/entry[@id = $id])[1]", root(db))
}

func existingIDsQuery(db string) string {
	return fmt.Sprintf("declare variable $ids external;\n"+
		"let $wanted := tokenize($ids, '&#10;')\n"+
		"return string-join(%s/entry[@id = $wanted]/string(@id), '&#10;')", root(db))
}

func headwordsQuery(db string) string {
	return fmt.Sprintf("declare variable $ids external;\n"+
		"let $wanted := tokenize($ids, '&#10;')\n"+
		"return <headwords>{for $e in %s/entry[@id = $wanted]\n"+
		"  return <hw id=\"{$e/@id}\">{for $f in $e/lexical-unit/form\n"+
		"    return <form lang=\"{$f/@lang}\"><text>{string($f/text)}</text></form>}</hw>}</headwords>", root(db))
}

func insertQuery(db string) string {
	return basex.ErrorNamespace + "\n" +
		"declare variable $id external;\n" +
		"declare variable $xml external;\n" +
		fmt.Sprintf("let $root := %s\n", root(db)) +
		"return if (exists($root/entry[@id = $id]))\n" +
		"  then error(xs:QName('dws:exists'), 'entry ' || $id || ' already exists')\n" +
		"  else insert node parse-xml($xml)/* into $root"
}

func replaceQuery(db string) string {
	return basex.ErrorNamespace + "\n" +
		"declare variable $id external;\n" +
		"declare variable $xml external;\n" +
		fmt.Sprintf("let $old := %s/entry[@id = $id]\n", root(db)) +
		"return if (empty($old))\n" +
		"  then error(xs:QName('dws:not-found'), 'entry ' || $id || ' not found')\n" +
		"  else replace node $old[1] with parse-xml($xml)/*"
}

func deleteQuery(db string) string {
	return basex.ErrorNamespace + "\n" +
		"declare variable $id external;\n" +
		fmt.Sprintf("let $old := %s/entry[@id = $id]\n", root(db)) +
		"return if (empty($old))\n" +
		"  then error(xs:QName('dws:not-found'), 'entry ' || $id || ' not found')\n" +
		"  else delete node $old"
}

// bulkInsertQuery inserts the entries of a <lift> fragment whose ids are
// not stored yet.
func bulkInsertQuery(db string) string {
	return "declare variable $xml external;\n" +
		fmt.Sprintf("let $root := %s\n", root(db)) +
		"for $n in parse-xml($xml)/lift/entry\n" +
		"where empty($root/entry[@id = $n/@id])\n" +
		"return insert node $n into $root"
}

// bulkUpsertQuery replaces stored entries with the same id and inserts the rest.
func bulkUpsertQuery(db string) string {
	return "declare variable $xml external;\n" +
		fmt.Sprintf("let $root := %s\n", root(db)) +
		"for $n in parse-xml($xml)/lift/entry\n" +
		"let $old := $root/entry[@id = $n/@id]\n" +
		"return if (exists($old)) then replace node $old[1] with $n else insert node $n into $root"
}

func clearQuery(db string) string {
	return fmt.Sprintf("delete nodes %s/entry", root(db))
}

func countQuery(db string) string {
	return fmt.Sprintf("count(%s/entry)", root(db))
}

func statisticsQuery(db string) string {
	return fmt.Sprintf("let $e := %s/entry\n"+
		"return <stats entries=\"{count($e)}\" senses=\"{count($e/sense)}\" examples=\"{count($e/sense//example)}\"/>", root(db))
}
