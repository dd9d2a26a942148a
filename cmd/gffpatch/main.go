package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/modforge/gffkit/diff"
	"github.com/modforge/gffkit/gff"
	"github.com/modforge/gffkit/patch"
	"github.com/modforge/gffkit/tabular"
)

func main() {
	var (
		detectFile  = flag.String("detect", "", "Detect the format of a file and exit")
		oldFile     = flag.String("old", "", "Path to the original file")
		newFile     = flag.String("new", "", "Path to the modified file")
		scriptOut   = flag.String("script", "", "Write a generated patch script to this path")
		applyFile   = flag.String("apply", "", "Apply a patch script")
		targetDir   = flag.String("dir", ".", "Directory holding the files a script patches")
		configFile  = flag.String("config", "", "Build a script from a YAML run configuration")
		keepDefault = flag.Bool("keep-defaults", false, "Report default-valued field additions")
		interactive = flag.Bool("i", false, "Interactive diff browser")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		patch.SetLogger(log)
	}

	var err error
	switch {
	case *detectFile != "":
		err = runDetect(*detectFile)
	case *configFile != "":
		err = runConfig(*configFile)
	case *applyFile != "":
		err = runApply(*applyFile, *targetDir)
	case *oldFile != "" && *newFile != "":
		if *interactive {
			err = runInteractive(*oldFile, *newFile, !*keepDefault)
		} else {
			err = runDiff(*oldFile, *newFile, *scriptOut, !*keepDefault)
		}
	default:
		fmt.Fprintln(os.Stderr, "Usage: gffpatch -old <file> -new <file> [-script out.ini] [-i]")
		fmt.Fprintln(os.Stderr, "       gffpatch -apply <script.ini> [-dir root]")
		fmt.Fprintln(os.Stderr, "       gffpatch -config <run.yaml>")
		fmt.Fprintln(os.Stderr, "       gffpatch -detect <file>")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDetect(path string) error {
	format, err := gff.DetectFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", path, format)
	return nil
}

func runDiff(oldPath, newPath, scriptOut string, ignoreDefaults bool) error {
	oldTree, newTree, err := loadPair(oldPath, newPath)
	if err != nil {
		return err
	}

	res := diff.Compare(oldTree, newTree, diff.Options{IgnoreDefaultAdditions: ignoreDefaults})
	fmt.Printf("%s\n", res.Status)
	for _, e := range res.Entries {
		fmt.Printf("  %s\n", e)
	}

	if scriptOut == "" || res.Status != diff.Modified {
		return nil
	}

	s, err := patch.BuildScript(nil, []patch.FileDiff{{
		Name:   filepath.Base(newPath),
		Old:    oldTree,
		New:    newTree,
		Result: res,
	}})
	if err != nil {
		return err
	}
	text, err := patch.EmitScriptString(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(scriptOut, []byte(text), 0o644); err != nil {
		return err
	}
	fmt.Printf("\nScript written to %s\n", scriptOut)
	return nil
}

func runApply(scriptPath, dir string) error {
	f, err := os.Open(scriptPath)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := patch.ParseScript(f)
	if err != nil {
		return err
	}

	trees := make(map[string]*gff.Tree, len(s.Files))
	for _, sec := range s.Files {
		tree, err := gff.DecodeFile(filepath.Join(dir, sec.Name))
		if err != nil {
			return fmt.Errorf("load %s: %w", sec.Name, err)
		}
		trees[sec.Name] = tree
	}
	for _, sec := range s.Tables {
		fmt.Fprintf(os.Stderr, "Warning: table section %s needs a tabular backend; its tokens stay unset\n", sec.Name)
	}

	results, err := patch.ApplyScript(s, trees, map[string]tabular.TableWriter{})
	for name, res := range results {
		fmt.Printf("%s: %d applied, %d skipped (run %s)\n", name, res.Applied, len(res.Skipped), res.RunID)
		for _, sk := range res.Skipped {
			fmt.Printf("  skipped %s: %v\n", sk.Instruction.Kind(), sk.Err)
		}
	}
	if err != nil && len(s.Tables) == 0 {
		return err
	}

	for name, tree := range trees {
		if err := gff.EncodeFile(filepath.Join(dir, name), tree); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func loadPair(oldPath, newPath string) (*gff.Tree, *gff.Tree, error) {
	oldTree, err := gff.DecodeFile(oldPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", oldPath, err)
	}
	newTree, err := gff.DecodeFile(newPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", newPath, err)
	}
	return oldTree, newTree, nil
}
