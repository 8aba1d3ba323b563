package ssaunit

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/picatz/iotaint/traceutil"
)

// LoadMode is the packages.LoadMode Load uses. NeedFiles provides the
// assembly files of each package through OtherFiles.
const LoadMode = packages.NeedName |
	packages.NeedDeps |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedModule |
	packages.NeedTypes |
	packages.NeedImports |
	packages.NeedSyntax |
	packages.NeedTypesInfo

// Load loads the packages matching patterns from dir, builds their SSA
// form, and returns a unit holding the source functions of those
// packages, including methods and closures, in source order.
//
// Package errors are logged and loading goes on, as long as at least
// one package could be built.
func Load(ctx context.Context, dir string, patterns ...string) (*Unit, []*packages.Package, error) {
	logger := traceutil.FromContext(ctx)

	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	pkgs, err := packages.Load(&packages.Config{
		Mode:    LoadMode,
		Context: ctx,
		Env:     os.Environ(),
		Dir:     dir,
		Tests:   false,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			return parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
		},
	}, patterns...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load packages: %w", err)
	}

	for _, p := range pkgs {
		for _, perr := range p.Errors {
			logger.Warning("package load error: %v", perr)
		}
	}

	prog, ssaPkgs := ssautil.Packages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	var (
		fns   []*ssa.Function
		asm   = make(map[string]map[string]string)
		built int
	)

	for i, pkg := range ssaPkgs {
		if pkg == nil {
			logger.Warning("SSA package %s is nil", pkgs[i].PkgPath)
			continue
		}
		built++

		fns = append(fns, SourceFunctions(pkg)...)

		bodies, err := ParseAsmFiles(pkgs[i].OtherFiles...)
		if err != nil {
			return nil, nil, err
		}
		if len(bodies) > 0 {
			asm[pkg.Pkg.Path()] = bodies
			logger.Debug("found %d assembly routines in %s", len(bodies), pkg.Pkg.Path())
		}
	}

	if built == 0 {
		return nil, pkgs, fmt.Errorf("no SSA packages built for %s", strings.Join(patterns, ", "))
	}

	logger.Step(fmt.Sprintf("loaded %d packages", len(pkgs)), fmt.Sprintf("%d functions", len(fns)))

	unit, err := New(ctx, fns, Config{
		Name: strings.Join(patterns, ","),
		Asm:  asm,
	})
	if err != nil {
		return nil, pkgs, err
	}
	return unit, pkgs, nil
}

// SourceFunctions returns the functions declared in pkg: package level
// functions, methods of its named types, and every closure nested in
// them. They are ordered by position, closures following their parent.
func SourceFunctions(pkg *ssa.Package) []*ssa.Function {
	var roots []*ssa.Function

	for _, m := range pkg.Members {
		switch m := m.(type) {
		case *ssa.Function:
			if m.Object() == nil || m.Object().Name() == "_" {
				continue
			}
			roots = append(roots, m)
		case *ssa.Type:
			named, ok := m.Type().(*types.Named)
			if !ok || named.TypeParams().Len() > 0 {
				continue
			}
			for _, t := range []types.Type{named, types.NewPointer(named)} {
				mset := pkg.Prog.MethodSets.MethodSet(t)
				for i := 0; i < mset.Len(); i++ {
					sel := mset.At(i)
					if sel.Obj().Pkg() != pkg.Pkg {
						continue
					}
					fn := pkg.Prog.MethodValue(sel)
					if fn == nil || fn.Synthetic != "" {
						continue
					}
					roots = append(roots, fn)
				}
			}
		}
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].Pos() < roots[j].Pos()
	})

	var (
		fns  []*ssa.Function
		seen = make(map[*ssa.Function]bool)
	)

	var addAnons func(f *ssa.Function)
	addAnons = func(f *ssa.Function) {
		if seen[f] {
			return
		}
		seen[f] = true
		fns = append(fns, f)
		for _, anon := range f.AnonFuncs {
			addAnons(anon)
		}
	}
	for _, fn := range roots {
		addAnons(fn)
	}

	return fns
}
