// Package datatable implements jQuery DataTables server-side processing:
// parsing the flat indexed request parameters and compiling them into
// allow-listed SQL fragments shared by every admin listing.
package datatable

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// LengthAll is the DataTables "show all" sentinel: pagination is skipped
// entirely, including the start offset.
const LengthAll = -1

type Column struct {
	Data       string // client-side field identifier
	Name       string
	Searchable bool
	Orderable  bool
	Search     string // per-column search value
}

type Sort struct {
	Column int    // index into Columns
	Dir    string // "ASC" or "DESC"
}

type Request struct {
	Draw    int
	Start   int
	Length  int
	Search  string // global search value
	Columns []Column
	Sorts   []Sort
}

type Response[T any] struct {
	Draw            int `json:"draw"`
	RecordsTotal    int `json:"recordsTotal"`
	RecordsFiltered int `json:"recordsFiltered"`
	Data            []T `json:"data"`
}

// Parse reconstructs a Request from flat indexed keys
// (columns[0][data], order[0][column], ...), scanning sequential indices
// until one is absent. Unparseable numbers fall back to defaults.
func Parse(q url.Values) Request {
	req := Request{
		Draw:   intDefault(q.Get("draw"), 1),
		Start:  intDefault(q.Get("start"), 0),
		Length: intDefault(q.Get("length"), 10),
		Search: q.Get("search[value]"),
	}
	if req.Draw < 1 {
		req.Draw = 1
	}
	if req.Start < 0 {
		req.Start = 0
	}
	if req.Length < 1 && req.Length != LengthAll {
		req.Length = 10
	}

	for i := 0; ; i++ {
		key := fmt.Sprintf("columns[%d][data]", i)
		if !q.Has(key) {
			break
		}
		req.Columns = append(req.Columns, Column{
			Data:       q.Get(key),
			Name:       q.Get(fmt.Sprintf("columns[%d][name]", i)),
			Searchable: q.Get(fmt.Sprintf("columns[%d][searchable]", i)) == "true",
			Orderable:  q.Get(fmt.Sprintf("columns[%d][orderable]", i)) == "true",
			Search:     q.Get(fmt.Sprintf("columns[%d][search][value]", i)),
		})
	}

	for i := 0; ; i++ {
		key := fmt.Sprintf("order[%d][column]", i)
		if !q.Has(key) {
			break
		}
		dir := "ASC"
		if strings.EqualFold(q.Get(fmt.Sprintf("order[%d][dir]", i)), "desc") {
			dir = "DESC"
		}
		req.Sorts = append(req.Sorts, Sort{
			Column: intDefault(q.Get(key), 0),
			Dir:    dir,
		})
	}
	return req
}

func intDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Builder compiles a Request against a closed set of columns. Caller-supplied
// field names are only ever used as map keys; the SQL side always comes from
// the Columns values, so arbitrary column injection is impossible.
type Builder struct {
	// Columns maps a client field identifier to its SQL expression.
	Columns map[string]string
	// Globals are the SQL expressions matched by the global search term.
	Globals []string
	// DefaultOrder is used when no valid sort directive is supplied.
	DefaultOrder string
}

// Filter returns the WHERE body (without the WHERE keyword) and its args.
// Placeholders are numbered from argPos so the fragment can follow earlier
// parameters. Global search is an OR across Globals; per-column searches are
// ANDed on top. Fields missing from Columns are silently ignored.
func (b Builder) Filter(req Request, argPos int) (string, []any) {
	var conds []string
	var args []any

	if term := strings.TrimSpace(req.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		n := argPos + len(args) - 1
		ors := make([]string, 0, len(b.Globals))
		for _, expr := range b.Globals {
			ors = append(ors, fmt.Sprintf("LOWER(CAST(%s AS TEXT)) LIKE $%d", expr, n))
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	for _, col := range req.Columns {
		if !col.Searchable || strings.TrimSpace(col.Search) == "" {
			continue
		}
		expr, ok := b.Columns[col.Data]
		if !ok {
			continue
		}
		args = append(args, "%"+strings.ToLower(col.Search)+"%")
		conds = append(conds, fmt.Sprintf("LOWER(CAST(%s AS TEXT)) LIKE $%d", expr, argPos+len(args)-1))
	}

	return strings.Join(conds, " AND "), args
}

// Order returns the ORDER BY body. Sort directives are applied in request
// order as primary/secondary keys, each restricted to the allow-list; when
// none survive, DefaultOrder applies.
func (b Builder) Order(req Request) string {
	var keys []string
	for _, s := range req.Sorts {
		if s.Column < 0 || s.Column >= len(req.Columns) {
			continue
		}
		col := req.Columns[s.Column]
		if !col.Orderable {
			continue
		}
		expr, ok := b.Columns[col.Data]
		if !ok {
			continue
		}
		keys = append(keys, expr+" "+s.Dir)
	}
	if len(keys) == 0 {
		return b.DefaultOrder
	}
	return strings.Join(keys, ", ")
}

// Limit returns the LIMIT/OFFSET clause, or "" for the "all" sentinel.
func (b Builder) Limit(req Request) string {
	if req.Length == LengthAll {
		return ""
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", req.Length, req.Start)
}
