package inspect

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/srschema/srschema/internal/descriptor"
)

// partitionByPattern captures a possibly multi-line PARTITION BY clause out
// of SHOW CREATE output, up to the next top-level clause. REFRESH and AS
// SELECT terminate materialized view definitions.
var partitionByPattern = regexp.MustCompile(
	`(?is)\bPARTITION BY\s+(.+?)\s*(?:\bDISTRIBUTED BY\b|\bORDER BY\b|\bREFRESH\b|\bPROPERTIES\b|\bROLLUP\b|\bAS\s+SELECT\b|;|$)`)

// partitionClauseFromDDL extracts the PARTITION BY expression from a CREATE
// TABLE statement, or "" when the table is unpartitioned
func partitionClauseFromDDL(ddl string) string {
	match := partitionByPattern.FindStringSubmatch(ddl)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// indexPattern matches one INDEX line of SHOW CREATE TABLE output. The
// comment comes back single- or double-quoted depending on server version.
var indexPattern = regexp.MustCompile(
	"(?im)^\\s*INDEX\\s+`?([^`\\s(]+)`?\\s*\\(([^)]*)\\)" +
		`(?:\s+USING\s+(\w+))?(?:\s+COMMENT\s+(?:'((?:[^']|'')*)'|"((?:[^"]|"")*)"))?`)

// indexesFromDDL extracts the index definitions from a CREATE TABLE
// statement, in declaration order. information_schema does not expose
// StarRocks indexes at all.
func indexesFromDDL(ddl string) []*descriptor.Index {
	matches := indexPattern.FindAllStringSubmatch(ddl, -1)
	if matches == nil {
		return nil
	}
	indexes := make([]*descriptor.Index, 0, len(matches))
	for _, m := range matches {
		comment := strings.ReplaceAll(m[4], "''", "'")
		if comment == "" {
			comment = strings.ReplaceAll(m[5], `""`, `"`)
		}
		indexes = append(indexes, &descriptor.Index{
			Name:    m[1],
			Columns: splitKeyList(m[2]),
			Using:   indexUsingFrom(m[3]),
			Comment: comment,
		})
	}
	return indexes
}

// indexUsingFrom maps the USING clause to an access method; an omitted
// clause means BITMAP on this server
func indexUsingFrom(text string) descriptor.IndexUsing {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return descriptor.IndexUsingBitmap
	}
	return descriptor.IndexUsing(text)
}

// parseProperties decodes the PROPERTIES column of tables_config. The
// catalog reports it as a JSON object; older releases emit loose
// "k" = "v" pairs instead.
func parseProperties(text string) descriptor.Properties {
	text = strings.TrimSpace(text)
	if text == "" || text == "{}" {
		return nil
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		if len(decoded) == 0 {
			return nil
		}
		return descriptor.Properties(decoded)
	}

	props := descriptor.Properties{}
	for _, pair := range strings.Split(strings.Trim(text, "{}"), ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			key, value, ok = strings.Cut(pair, ":")
		}
		if !ok {
			continue
		}
		key = strings.Trim(strings.TrimSpace(key), `"`)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if key != "" {
			props[key] = value
		}
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

// distributionClause rebuilds the DISTRIBUTED BY expression from the
// tables_config distribution columns
func distributionClause(distType, distKey string, buckets sql.NullInt64) string {
	distType = strings.ToUpper(strings.TrimSpace(distType))
	switch distType {
	case "":
		return ""
	case "RANDOM":
		if buckets.Valid && buckets.Int64 > 0 {
			return fmt.Sprintf("RANDOM BUCKETS %d", buckets.Int64)
		}
		return "RANDOM"
	default:
		clause := fmt.Sprintf("%s(%s)", distType, strings.Join(splitKeyList(distKey), ", "))
		if buckets.Valid && buckets.Int64 > 0 {
			clause += fmt.Sprintf(" BUCKETS %d", buckets.Int64)
		}
		return clause
	}
}

// splitKeyList splits a catalog column list like "`id`, `dt`" into bare
// column names
func splitKeyList(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.Trim(strings.TrimSpace(part), "`")
		if name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func securityFrom(text string) descriptor.Security {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "DEFINER":
		return descriptor.SecurityDefiner
	case "INVOKER":
		return descriptor.SecurityInvoker
	default:
		return descriptor.SecurityNone
	}
}

var aggTypes = map[string]descriptor.AggType{
	"SUM":                 descriptor.AggTypeSum,
	"COUNT":               descriptor.AggTypeCount,
	"MIN":                 descriptor.AggTypeMin,
	"MAX":                 descriptor.AggTypeMax,
	"HLL_UNION":           descriptor.AggTypeHLLUnion,
	"BITMAP_UNION":        descriptor.AggTypeBitmapUnion,
	"REPLACE":             descriptor.AggTypeReplace,
	"REPLACE_IF_NOT_NULL": descriptor.AggTypeReplaceIfNotNull,
}

// aggTypeFrom maps the Extra column of SHOW FULL COLUMNS to an aggregate
// type; Extra also carries markers like AUTO_INCREMENT, which are not
// aggregate functions
func aggTypeFrom(extra string) descriptor.AggType {
	if agg, ok := aggTypes[strings.ToUpper(strings.TrimSpace(extra))]; ok {
		return agg
	}
	return descriptor.AggTypeNone
}
