// Package sqlguard is an optional static screen for statements sent to the
// query tool. The database's read-only transaction stays the authority; the
// guard only rejects statements early with a clearer message.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/shakram02/sql-schema-mcp/internal/errors"
)

type rule struct {
	re   *regexp.Regexp
	desc string
}

func keyword(word string) rule {
	return rule{
		re:   regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])` + word + `(?:[^a-zA-Z_]|$)`),
		desc: "keyword " + word,
	}
}

func function(name string) rule {
	return rule{
		re:   regexp.MustCompile(`(?i)\b` + name + `\s*\(`),
		desc: "function " + name + "()",
	}
}

func pattern(expr, desc string) rule {
	return rule{re: regexp.MustCompile(expr), desc: desc}
}

// Rules is the screening policy for one dialect.
type Rules struct {
	Syntax   Syntax
	Prefixes []string
	Forbid   []rule
}

var commonPrefixes = []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "VALUES"}

var common = []rule{
	keyword("INSERT"),
	keyword("UPDATE"),
	keyword("DELETE"),
	keyword("MERGE"),
	keyword("DROP"),
	keyword("CREATE"),
	keyword("ALTER"),
	keyword("TRUNCATE"),
	keyword("GRANT"),
	keyword("REVOKE"),
	keyword("CALL"),
	keyword("EXECUTE"),
	pattern(`(?i)(?:^|;)\s*SET\b`, "SET statement"),
}

var (
	Postgres = Rules{
		Syntax:   Syntax{DollarQuotes: true},
		Prefixes: append(append([]string{}, commonPrefixes...), "TABLE"),
		Forbid: append(append([]rule{}, common...),
			keyword("COPY"),
			keyword("LISTEN"),
			keyword("NOTIFY"),
			keyword("PREPARE"),
			keyword("DEALLOCATE"),
			keyword("VACUUM"),
			keyword("REINDEX"),
			keyword("CLUSTER"),
			function("pg_read_file"),
			function("pg_read_binary_file"),
			function("pg_ls_dir"),
			function("lo_import"),
			function("lo_export"),
			function("pg_sleep"),
			function("pg_sleep_for"),
			function("pg_sleep_until"),
			function("pg_advisory_lock"),
			function("pg_advisory_xact_lock"),
			function("pg_try_advisory_lock"),
			function("dblink"),
		),
	}

	MySQL = Rules{
		Syntax:   Syntax{HashComments: true, BackslashEscapes: true, BacktickIdents: true},
		Prefixes: commonPrefixes,
		Forbid: append(append([]rule{}, common...),
			keyword("EXEC"),
			keyword("REPLACE"),
			keyword("LOAD"),
			keyword("HANDLER"),
			keyword("RENAME"),
			pattern(`(?i)\bINTO\s+OUTFILE\b`, "INTO OUTFILE"),
			pattern(`(?i)\bINTO\s+DUMPFILE\b`, "INTO DUMPFILE"),
			pattern(`(?i)\bINTO\s+@`, "INTO @variable"),
			function("LOAD_FILE"),
			function("SLEEP"),
			function("BENCHMARK"),
			function("GET_LOCK"),
			function("RELEASE_LOCK"),
			function("IS_FREE_LOCK"),
			function("IS_USED_LOCK"),
			function("WAIT_FOR_EXECUTED_GTID_SET"),
			function("MASTER_POS_WAIT"),
			function("SOURCE_POS_WAIT"),
		),
	}

	SQLite = Rules{
		Syntax:   Syntax{BacktickIdents: true, BracketIdents: true},
		Prefixes: append(append([]string{}, commonPrefixes...), "PRAGMA"),
		Forbid: append(append([]rule{}, common...),
			keyword("REPLACE"),
			keyword("ATTACH"),
			keyword("DETACH"),
			keyword("REINDEX"),
			keyword("VACUUM"),
			pattern(`(?i)\bPRAGMA\s+[\w.]+\s*=`, "PRAGMA assignment"),
			function("load_extension"),
			function("writefile"),
			function("edit"),
			function("fts3_tokenizer"),
		),
	}
)

var leadingWord = regexp.MustCompile(`^\s*\(*\s*([A-Za-z]+)`)

// Check rejects statements that are empty, batch several statements, start
// with anything but a read verb, or mention a forbidden keyword or function
// outside of literals and comments.
func (r Rules) Check(sql string) error {
	if strings.TrimSpace(sql) == "" {
		return apperrors.New(apperrors.InvalidArgument, "empty query")
	}

	stripped := Strip(sql, r.Syntax)

	m := leadingWord.FindStringSubmatch(stripped)
	if m == nil || !r.allowedPrefix(m[1]) {
		return apperrors.New(apperrors.InvalidArgument,
			fmt.Sprintf("only %s statements are allowed", strings.Join(r.Prefixes, ", ")))
	}

	if idx := strings.IndexByte(stripped, ';'); idx >= 0 && strings.TrimSpace(stripped[idx+1:]) != "" {
		return apperrors.New(apperrors.InvalidArgument, "multiple statements are not allowed")
	}

	for _, f := range r.Forbid {
		if f.re.MatchString(stripped) {
			return apperrors.New(apperrors.InvalidArgument, "query contains forbidden "+f.desc)
		}
	}
	return nil
}

func (r Rules) allowedPrefix(word string) bool {
	for _, p := range r.Prefixes {
		if strings.EqualFold(p, word) {
			return true
		}
	}
	return false
}
