// Package cli wires the motif CLI's cobra command: render a template
// against JSON data (optionally typed by a description JSON file), or dump
// a template's parsed structure.
// Grounded on compozy's cli/root.go command-construction shape, narrowed
// to the single-command surface this engine's CLI needs.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/motif-lang/motif"
	"github.com/motif-lang/motif/template"
	"github.com/motif-lang/motif/value"
)

const infoFlagPresent = "\x00present\x00"

// Execute builds and runs the root command against os.Args.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	var fileFlag, dataFlag, infoFlag, outputFlag string

	cmd := &cobra.Command{
		Use:   "motif",
		Short: "Render motif templates against JSON data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(runArgs{
				file:        fileFlag,
				data:        dataFlag,
				info:        infoFlag,
				infoGiven:   cmd.Flags().Changed("info"),
				dataGiven:   cmd.Flags().Changed("data"),
				output:      outputFlag,
				outputGiven: cmd.Flags().Changed("output"),
			})
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "template file to render")
	cmd.Flags().StringVarP(&dataFlag, "data", "d", "", "JSON data file")
	cmd.Flags().StringVarP(&infoFlag, "info", "i", "", "description JSON file (omit value, with no --data, to dump the template's raw structure)")
	cmd.Flags().Lookup("info").NoOptDefVal = infoFlagPresent
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output directory; omitted runs in dry-run mode, printing to stdout")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

type runArgs struct {
	file        string
	data        string
	info        string
	infoGiven   bool
	dataGiven   bool
	output      string
	outputGiven bool
}

func run(args runArgs) error {
	e := motif.New()

	if args.infoGiven && args.info == infoFlagPresent && !args.dataGiven {
		return dumpStructure(e, args.file)
	}

	var info *template.Description
	if args.infoGiven && args.info != infoFlagPresent {
		d, err := loadDescription(args.info)
		if err != nil {
			return err
		}
		info = d
	}

	data := value.Null()
	if args.dataGiven {
		raw, err := os.ReadFile(args.data)
		if err != nil {
			return fmt.Errorf("reading data file: %w", err)
		}
		data, err = value.Parse(string(raw))
		if err != nil {
			return fmt.Errorf("parsing data JSON: %w", err)
		}
	}

	if args.outputGiven {
		e.SetOutputDir(args.output)
		e.SetDryRun(false)
	} else {
		e.SetDryRun(true)
	}

	var out string
	var err error
	if info != nil {
		out, err = e.RenderFile(args.file, data, info)
	} else {
		out, err = e.RenderFile(args.file, data)
	}
	if err != nil {
		return err
	}
	if !args.outputGiven {
		fmt.Print(out)
	}
	return nil
}

func dumpStructure(e *motif.Engine, file string) error {
	tmpl, err := e.ParseFile(file)
	if err != nil {
		return err
	}
	dumpBlock(tmpl.Root(), 0)
	return nil
}

func loadDescription(path string) (*template.Description, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading description file: %w", err)
	}
	jv, err := value.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing description JSON: %w", err)
	}
	return template.DescriptionFromJV(jv)
}
