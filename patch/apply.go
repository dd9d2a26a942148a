package patch

import (
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/modforge/gffkit/gff"
)

// Skipped records an instruction that failed during a run. The rest of
// the run continues past it.
type Skipped struct {
	Instruction Instruction
	Path        string
	Err         error
}

// Result summarizes one Apply run.
type Result struct {
	RunID   string
	Applied int
	Skipped []Skipped

	// Err aggregates every skipped instruction's error. Nil when the run
	// was clean.
	Err error
}

type applyCtx struct {
	tree    *gff.Tree
	store   *TokenStore
	res     *Result
	log     *zap.Logger
	listIdx int
}

// Apply runs instructions against a tree in order. A failing instruction
// is logged, recorded in the result, and skipped; mutations already made
// by earlier instructions stay in place.
func Apply(tree *gff.Tree, instrs []Instruction, store *TokenStore) *Result {
	if store == nil {
		store = NewTokenStore()
	}
	res := &Result{RunID: uuid.NewString()}
	ctx := &applyCtx{
		tree:    tree,
		store:   store,
		res:     res,
		log:     Logger().With(zap.String("run", res.RunID)),
		listIdx: -1,
	}
	ctx.applyAll(instrs, nil)
	return res
}

func (ctx *applyCtx) applyAll(instrs []Instruction, base Path) {
	for _, in := range instrs {
		if err := in.apply(ctx, base); err != nil {
			ctx.skip(in, base, err)
			continue
		}
		ctx.res.Applied++
	}
}

func (ctx *applyCtx) skip(in Instruction, base Path, err error) {
	pathStr := base.String()
	ctx.log.Warn("instruction skipped",
		zap.String("instruction", in.Kind()),
		zap.String("base", pathStr),
		zap.Error(err))
	ctx.res.Skipped = append(ctx.res.Skipped, Skipped{Instruction: in, Path: pathStr, Err: err})
	ctx.res.Err = multierr.Append(ctx.res.Err, err)
}
