package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/reoring/codable"
	"github.com/reoring/codable/node"
	"github.com/reoring/codable/source/gojson"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case "convert":
		err = convertCmd(args[1:], stdin, stdout)
	case "inspect":
		err = inspectCmd(args[1:], stdin, stdout)
	case "dupkeys":
		var found bool
		found, err = dupkeysCmd(args[1:], stdin, stdout)
		if err == nil && found {
			return 1
		}
	default:
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "codable CLI\n\nUsage:\n  codable convert -from yaml -to json [file]\n  codable inspect [-from json] [file]\n  codable dupkeys [-max N] [file]\n\nFormats: "+strings.Join(formatNames(), ", ")+"\nInput is read from stdin when no file is given.")
}

func convertCmd(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	var from, to, driver string
	var strict bool
	var maxDepth int
	fs.StringVar(&from, "from", "json", "input format")
	fs.StringVar(&to, "to", "json", "output format")
	fs.StringVar(&driver, "driver", "encoding/json", "JSON driver: encoding/json or go-json")
	fs.BoolVar(&strict, "strict", false, "reject duplicate JSON keys")
	fs.IntVar(&maxDepth, "max-depth", 0, "maximum JSON nesting depth (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := selectDriver(driver); err != nil {
		return err
	}
	opt := codable.DecodeOpt{MaxDepth: maxDepth}
	if strict {
		opt.Strictness.OnDuplicateKey = codable.SeverityError
	}
	n, err := readInput(fs.Arg(0), stdin, from, opt)
	if err != nil {
		return err
	}
	v, err := codable.DecodeValue(n)
	if err != nil {
		return err
	}
	out, err := writeFormat(to, codable.EncodeValue(v))
	if err != nil {
		return err
	}
	if _, err := stdout.Write(out); err != nil {
		return err
	}
	if to == "json" {
		_, err = io.WriteString(stdout, "\n")
	}
	return err
}

func inspectCmd(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	var from string
	fs.StringVar(&from, "from", "json", "input format")
	if err := fs.Parse(args); err != nil {
		return err
	}
	n, err := readInput(fs.Arg(0), stdin, from, codable.DecodeOpt{})
	if err != nil {
		return err
	}
	v, err := codable.DecodeValue(n)
	if err != nil {
		return err
	}
	printTree(stdout, "", "", v)
	return nil
}

// printTree writes one line per value with its variant.
func printTree(w io.Writer, indent, label string, v codable.Value) {
	switch v.Kind() {
	case codable.ValueSequence:
		fmt.Fprintf(w, "%s%s%s[%d]\n", indent, label, v.Kind(), v.Len())
		for i, it := range v.Items() {
			printTree(w, indent+"  ", fmt.Sprintf("%d: ", i), it)
		}
	case codable.ValueMap:
		fmt.Fprintf(w, "%s%s%s{%d}\n", indent, label, v.Kind(), v.Len())
		for _, e := range v.Entries() {
			printTree(w, indent+"  ", fmt.Sprintf("%q: ", e.Key), e.Value)
		}
	default:
		fmt.Fprintf(w, "%s%s%s %s\n", indent, label, v.Kind(), v)
	}
}

func dupkeysCmd(args []string, stdin io.Reader, stdout io.Writer) (bool, error) {
	fs := flag.NewFlagSet("dupkeys", flag.ContinueOnError)
	var maxIssues int
	fs.IntVar(&maxIssues, "max", 0, "stop after N issues (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	data, err := readAll(fs.Arg(0), stdin)
	if err != nil {
		return false, err
	}
	iss := codable.DetectJSONDuplicateKeys(data, maxIssues)
	for _, it := range iss {
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", it.Code, it.Path, it.Message)
	}
	return len(iss) > 0, nil
}

func selectDriver(name string) error {
	switch name {
	case "encoding/json", "json", "":
		codable.UseDefaultJSONDriver()
	case "go-json", "gojson":
		codable.SetJSONDriver(gojson.Driver())
	default:
		return fmt.Errorf("unknown JSON driver %q", name)
	}
	return nil
}

func readInput(path string, stdin io.Reader, format string, opt codable.DecodeOpt) (*node.Node, error) {
	data, err := readAll(path, stdin)
	if err != nil {
		return nil, err
	}
	return readFormat(format, data, opt)
}

func readAll(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
