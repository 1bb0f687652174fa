package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/schemaspec"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "validate":
		validateCmd(os.Args[2:])
	case "normalize":
		normalizeCmd(os.Args[2:])
	case "params":
		paramsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `queryfilter CLI

Usage:
  queryfilter validate  -schema filters.yaml [-name NAME] [-strict-keys] [-fail-fast] "page=2&q=shoes"
  queryfilter normalize -schema filters.yaml [-name NAME] "page=02&utm_source=mail"
  queryfilter params    -schema filters.yaml [-name NAME]

The schema file is parsed as YAML unless its name ends in .json.
validate prints the coerced values (and errors) as JSON; normalize prints
the canonical query string for a valid input.`)
}

type schemaFlags struct {
	fs         *flag.FlagSet
	path       string
	name       string
	strictKeys bool
}

func newSchemaFlags(sub string) *schemaFlags {
	sf := &schemaFlags{fs: flag.NewFlagSet(sub, flag.ExitOnError)}
	sf.fs.StringVar(&sf.path, "schema", "", "path to the filter-schema document")
	sf.fs.StringVar(&sf.name, "name", "", "schema name inside a multi-document YAML bundle")
	sf.fs.BoolVar(&sf.strictKeys, "strict-keys", false, "treat unrecognized document keys as errors")
	return sf
}

func (sf *schemaFlags) load() queryfilter.Schema {
	if sf.path == "" {
		sf.fs.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(sf.path)
	if err != nil {
		fatalf("reading schema: %v", err)
	}
	opts := schemaspec.Options{StrictKeys: sf.strictKeys}

	var s queryfilter.Schema
	var diag schemaspec.Diag
	switch {
	case strings.HasSuffix(sf.path, ".json"):
		s, diag, err = schemaspec.Import(data, opts)
	case sf.name != "":
		s, diag, err = schemaspec.ImportYAMLNamed(data, sf.name, opts)
	default:
		s, diag, err = schemaspec.ImportYAML(data, opts)
	}
	if err != nil {
		fatalf("importing schema: %v", err)
	}
	if diag.HasWarnings() {
		for _, w := range diag.Warnings() {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return s
}

type issueReport struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

type stateReport struct {
	Valid  bool                   `json:"valid"`
	Values map[string]any         `json:"values"`
	Errors map[string]issueReport `json:"errors,omitempty"`
}

func reportFor(st queryfilter.State) stateReport {
	rep := stateReport{Valid: st.Valid(), Values: st.Values}
	if rep.Values == nil {
		rep.Values = map[string]any{}
	}
	if len(st.Errors) > 0 {
		rep.Errors = make(map[string]issueReport, len(st.Errors))
		for k, it := range st.Errors {
			rep.Errors[k] = issueReport{Code: it.Code, Message: it.Message, Hint: it.Hint, Rule: it.Rule}
		}
	}
	return rep
}

func validateCmd(args []string) {
	sf := newSchemaFlags("validate")
	var failFast bool
	sf.fs.BoolVar(&failFast, "fail-fast", false, "stop at the first offending field")
	_ = sf.fs.Parse(args)
	s := sf.load()

	raw, err := queryfilter.DecodeQuery(sf.fs.Arg(0))
	if err != nil {
		fatalf("parsing query: %v", err)
	}
	st := queryfilter.Validate(context.Background(), s, raw, queryfilter.Opt{FailFast: failFast})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reportFor(st)); err != nil {
		fatalf("encoding report: %v", err)
	}
	if !st.Valid() {
		os.Exit(1)
	}
}

func normalizeCmd(args []string) {
	sf := newSchemaFlags("normalize")
	_ = sf.fs.Parse(args)
	s := sf.load()

	raw, err := queryfilter.DecodeQuery(sf.fs.Arg(0))
	if err != nil {
		fatalf("parsing query: %v", err)
	}
	st := queryfilter.Validate(context.Background(), s, raw)
	if !st.Valid() {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(reportFor(st))
		os.Exit(1)
	}
	q, err := queryfilter.EncodeQuery(st.Values)
	if err != nil {
		fatalf("encoding query: %v", err)
	}
	fmt.Println(q)
}

func paramsCmd(args []string) {
	sf := newSchemaFlags("params")
	_ = sf.fs.Parse(args)
	s := sf.load()

	params, err := s.Parameters()
	if err != nil {
		fatalf("exporting parameters: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(params); err != nil {
		fatalf("encoding parameters: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
