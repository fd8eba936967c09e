package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/connection"
)

// Colors
var (
	colorKey    = lipgloss.Color("#8ECDF8")
	colorDim    = lipgloss.Color("#8899A6")
	colorLabel  = lipgloss.Color("#1D9BF0")
	colorHeader = lipgloss.Color("#E7E9EA")
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(colorHeader).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorKey)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorLabel).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// printer renders results for humans, or as JSON. Styling is only applied
// when writing to a terminal.
type printer struct {
	w      io.Writer
	json   bool
	styled bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	styled := false
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		styled = true
	}

	return &printer{w: w, json: asJSON, styled: styled}
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}

	return s.Render(text)
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// Result prints every record followed by a summary line.
func (p *printer) Result(result *neoql.Result) error {
	if p.json {
		rows := make([]map[string]any, 0, result.Len())
		for _, rec := range result.Records {
			rows = append(rows, rec.AsMap())
		}

		return p.encode(map[string]any{
			"records":  rows,
			"counters": result.Counters,
		})
	}

	for i, rec := range result.Records {
		if i > 0 {
			fmt.Fprintln(p.w)
		}

		for j, key := range rec.Keys {
			fmt.Fprintf(p.w, "%s: %s\n", p.render(keyStyle, key), p.formatValue(rec.Values[j]))
		}
	}

	summary := fmt.Sprintf("%d record(s)", result.Len())
	if c := result.Counters; c.ContainsUpdates() {
		summary += fmt.Sprintf(", %d node(s) created, %d node(s) deleted, %d relationship(s) created, %d relationship(s) deleted, %d propert(ies) set",
			c.NodesCreated, c.NodesDeleted, c.RelationshipsCreated, c.RelationshipsDeleted, c.PropertiesSet)
	}

	_, err := fmt.Fprintln(p.w, p.render(dimStyle, summary))

	return err
}

// Queries prints statements captured by a pretend run.
func (p *printer) Queries(logged []connection.LoggedQuery) error {
	if p.json {
		type entry struct {
			Statement string         `json:"statement"`
			Bindings  map[string]any `json:"bindings"`
		}

		entries := make([]entry, len(logged))
		for i, q := range logged {
			entries[i] = entry{Statement: q.Statement, Bindings: q.Bindings}
		}

		return p.encode(entries)
	}

	for _, q := range logged {
		fmt.Fprintln(p.w, p.render(headerStyle, q.Statement))

		for _, key := range sortedKeys(q.Bindings) {
			fmt.Fprintf(p.w, "  %s = %s\n", p.render(keyStyle, "$"+key), p.formatValue(q.Bindings[key]))
		}
	}

	return nil
}

// Report prints the result of the check command.
func (p *printer) Report(r *checkReport) error {
	if p.json {
		return p.encode(r)
	}

	fmt.Fprintf(p.w, "%s %s\n", p.render(headerStyle, "clauses:"), strings.Join(r.Clauses, " > "))
	fmt.Fprintf(p.w, "%s %s\n", p.render(headerStyle, "parameters:"), strings.Join(r.Parameters, ", "))
	_, err := fmt.Fprintf(p.w, "%s %s\n", p.render(headerStyle, "functions:"), strings.Join(r.Functions, ", "))

	return err
}

func (p *printer) formatValue(v any) string {
	switch t := v.(type) {
	case neoql.Node:
		var b strings.Builder

		b.WriteString("(")

		for _, label := range t.Labels {
			b.WriteString(p.render(labelStyle, ":"+label))
		}

		if len(t.Props) > 0 {
			b.WriteString(" ")
			b.WriteString(p.formatProps(t.Props))
		}

		b.WriteString(")")

		return b.String()
	case neoql.Relationship:
		props := ""
		if len(t.Props) > 0 {
			props = " " + p.formatProps(t.Props)
		}

		return "[" + p.render(labelStyle, ":"+t.Type) + props + "]"
	case neoql.Path:
		parts := make([]string, 0, len(t.Nodes)+len(t.Relationships))
		for i, n := range t.Nodes {
			parts = append(parts, p.formatValue(n))
			if i >= len(t.Relationships) {
				continue
			}

			rel := p.formatValue(t.Relationships[i])
			if t.Relationships[i].StartID == n.ID {
				parts = append(parts, "-"+rel+"->")
			} else {
				parts = append(parts, "<-"+rel+"-")
			}
		}

		return strings.Join(parts, "")
	case []any:
		items := make([]string, len(t))
		for i, e := range t {
			items[i] = p.formatValue(e)
		}

		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		return p.formatProps(t)
	case string:
		return fmt.Sprintf("%q", t)
	case nil:
		return p.render(dimStyle, "null")
	default:
		return fmt.Sprint(t)
	}
}

func (p *printer) formatProps(props map[string]any) string {
	pairs := make([]string, 0, len(props))
	for _, k := range sortedKeys(props) {
		pairs = append(pairs, k+": "+p.formatValue(props[k]))
	}

	return "{" + strings.Join(pairs, ", ") + "}"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
