// Command amlrun loads one or more raw ACPI table blobs (DSDT followed by
// optional SSDTs) and evaluates them against a host stub, for exercising the
// interpreter outside a real kernel. Grounded on
// tools/makelogo/makelogo.go's flag/os.Exit shape.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dro/amli-go/acpi/aml"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[amlrun] error: %s\n", err.Error())
	os.Exit(1)
}

func runTool() error {
	verbose := flag.Bool("v", false, "print interpreter debug output")
	evalMethod := flag.String("eval", "", "after load, invoke this absolute method path and print its result")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "amlrun: load and evaluate raw ACPI definition blocks\n\n")
		fmt.Fprint(os.Stderr, "Usage: amlrun [options] dsdt.bin [ssdt.bin ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		exit(errors.New("missing dsdt.bin argument"))
	}

	var w = os.Stdout
	var out *os.File
	if !*verbose {
		out = nil
	} else {
		out = w
	}

	host := newStubHost(w)
	s := aml.NewState(out, host, aml.DefaultConfig())

	for _, path := range flag.Args() {
		blob, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if aerr := s.LoadDefinitionBlock(path, blob); aerr != nil {
			return fmt.Errorf("%s: %s\n%s", path, aerr.Error(), aerr.StackTrace())
		}
	}

	if aerr := s.MarkLoadComplete(); aerr != nil {
		return fmt.Errorf("load complete: %s\n%s", aerr.Error(), aerr.StackTrace())
	}

	if *evalMethod != "" {
		node := s.Lookup(*evalMethod)
		if node == nil || node.Object == nil {
			return fmt.Errorf("eval: %s not found", *evalMethod)
		}
		v, aerr := s.Invoke(node.Object, nil)
		if aerr != nil {
			return fmt.Errorf("eval %s: %s\n%s", *evalMethod, aerr.Error(), aerr.StackTrace())
		}
		fmt.Fprintf(w, "%s -> %s\n", *evalMethod, v.String())
	}

	return nil
}

func main() {
	if err := runTool(); err != nil {
		exit(err)
	}
}
