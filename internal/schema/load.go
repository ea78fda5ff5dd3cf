package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/rdql/internal/ontology"
)

// LoadResult is the outcome of loading ontology files.
type LoadResult struct {
	*Result
	Files []string // CUE files read, in load order
}

// Load reads the CUE files named by paths, unifies them and compiles the
// result into r. A directory path loads the CUE package in that directory;
// a file path loads the single file.
func Load(r *ontology.Registry, paths ...string) (*LoadResult, error) {
	ctx := cuecontext.New()
	merged := ctx.CompileString("{}")
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("ontology source %s: %w", path, err)
		}

		var v cue.Value
		if info.IsDir() {
			found, err := FindCUEFiles(path)
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", path, err)
			}
			if len(found) == 0 {
				return nil, fmt.Errorf("no CUE files found in %s", path)
			}
			files = append(files, found...)
			if v, err = loadDir(ctx, path); err != nil {
				return nil, err
			}
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			files = append(files, path)
			v = ctx.CompileBytes(data, cue.Filename(path))
		}
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		merged = merged.Unify(v)
	}

	result, err := Compile(merged, r)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Result: result, Files: files}, nil
}

func loadDir(ctx *cue.Context, dir string) (cue.Value, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("loading CUE files in %s: %w", dir, inst.Err)
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return value, nil
}

// FindCUEFiles returns the .cue files under dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
