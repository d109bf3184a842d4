package main

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

type reportRow struct {
	Label string
	Value string
}

type reportTable struct {
	Title   string
	Columns []string
	Rows    [][]string
}

type reportSection struct {
	Title  string
	Rows   []reportRow
	Tables []reportTable
}

// Report is a calculator result flattened into labelled rows and tables for printing.
type Report struct {
	Title      string
	Calculator string
	Generated  time.Time
	Sections   []reportSection
}

// buildReport walks result's exported fields by their JSON names. Nested structs become
// their own sections and slices of structs become tables.
func buildReport(title, calc string, result any, generated time.Time) Report {
	rep := Report{Title: title, Calculator: calc, Generated: generated}
	v := reflect.Indirect(reflect.ValueOf(result))
	summary := reportSection{Title: "Summary"}
	var nested []reportSection
	if v.Kind() == reflect.Struct {
		collect(v, &summary, &nested)
	}
	if len(summary.Rows) > 0 || len(summary.Tables) > 0 {
		rep.Sections = append(rep.Sections, summary)
	}
	rep.Sections = append(rep.Sections, nested...)
	return rep
}

func collect(v reflect.Value, sec *reportSection, nested *[]reportSection) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := v.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collect(fv, sec, nested)
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		switch {
		case isScalar(f.Type):
			sec.Rows = append(sec.Rows, reportRow{Label: humanize(name), Value: formatField(name, fv)})
		case f.Type.Kind() == reflect.Struct:
			sub := reportSection{Title: humanize(name)}
			collect(fv, &sub, nested)
			*nested = append(*nested, sub)
		case f.Type.Kind() == reflect.Slice && f.Type.Elem().Kind() == reflect.Struct:
			if fv.Len() > 0 {
				sec.Tables = append(sec.Tables, tableOf(humanize(name), fv))
			}
		}
	}
}

func tableOf(title string, slice reflect.Value) reportTable {
	et := slice.Type().Elem()
	tbl := reportTable{Title: title}
	var idx []int
	var names []string
	for i := 0; i < et.NumField(); i++ {
		f := et.Field(i)
		name := jsonName(f)
		if !f.IsExported() || name == "" || !isScalar(f.Type) {
			continue
		}
		idx = append(idx, i)
		names = append(names, name)
		tbl.Columns = append(tbl.Columns, humanize(name))
	}
	for r := 0; r < slice.Len(); r++ {
		row := make([]string, len(idx))
		for c, i := range idx {
			row[c] = formatField(names[c], slice.Index(r).Field(i))
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func isScalar(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == decimalType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int64, reflect.String:
		return true
	}
	return false
}

// formatField picks a format from the field's JSON name: *_pct fields are already
// percentages, names with a "rate" segment are fractions, everything else decimal is
// money.
func formatField(name string, v reflect.Value) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "n/a"
		}
		v = v.Elem()
	}
	if v.Type() == decimalType {
		d := v.Interface().(decimal.Decimal)
		switch {
		case strings.HasSuffix(name, "_pct"):
			return d.StringFixed(2) + "%"
		case isRateName(name):
			return percent(d)
		case strings.HasSuffix(name, "_years"):
			return d.StringFixed(1) + " years"
		default:
			return moneyDec(d)
		}
	}
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return "Yes"
		}
		return "No"
	case reflect.String:
		return humanize(v.String())
	default:
		return fmt.Sprint(v.Interface())
	}
}

// isRateName reports whether one of name's snake_case segments is "rate", as in
// marginal_rate or average_rate_before.
func isRateName(name string) bool {
	for _, seg := range strings.Split(name, "_") {
		if seg == "rate" {
			return true
		}
	}
	return false
}

// humanize turns snake_case identifiers into "Snake case".
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// handleExport re-runs a calculator on the posted JSON (or the ?data= parameter on GET)
// and answers with a printable HTML document.
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("calculator")
	calc, ok := a.calcs[name]
	if !ok {
		http.Error(w, "unknown calculator", http.StatusNotFound)
		return
	}

	var body []byte
	switch r.Method {
	case http.MethodGet:
		body = []byte(r.URL.Query().Get("data"))
	case http.MethodPost:
		b, err := readBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		body = b
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := calc.Run(body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	a.recordUse(w, r, "export:"+name)

	now := a.now()
	filename := fmt.Sprintf("%s-%s.html", name, now.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	a.render(w, http.StatusOK, "report.html", buildReport(calc.Title, name, result, now))
}
