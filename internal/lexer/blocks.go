package lexer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aledsdavies/logconf/internal/diag"
)

// ContextAny is the pseudo-context a generator registers under to match
// every context, rather than a specific one.
const ContextAny Context = -1

// GeneratorFunc produces configuration text (or tokens, via the facade's
// injection methods) for a (context, name) block reference. It returns an
// error on failure, which the facade wraps as BlockExpansionError.
type GeneratorFunc func(f *Facade, ctx Context, name string, args ArgMap) error

// blockGenerator is the registry's stored entry. data/dataFree model an
// opaque user payload released on destruction or on a rejected duplicate
// registration.
type blockGenerator struct {
	context  Context
	name     string
	expand   GeneratorFunc
	data     any
	dataFree func(any)
}

type generatorKey struct {
	context Context
	name    string
}

// BlockGeneratorRegistry stores named block templates (and any other
// generator) keyed by (context, name), with ContextAny matching every
// context as a fallback.
type BlockGeneratorRegistry struct {
	entries map[generatorKey]*blockGenerator
	diag    diag.Sink
}

// NewBlockGeneratorRegistry returns an empty registry reporting rejected
// registrations through d.
func NewBlockGeneratorRegistry(d diag.Sink) *BlockGeneratorRegistry {
	return &BlockGeneratorRegistry{entries: make(map[generatorKey]*blockGenerator), diag: d}
}

// Register adds a generator. A duplicate (context, name) is rejected: the
// registry reports it at debug level and releases data immediately via
// dataFree, leaving the existing registration untouched.
func (r *BlockGeneratorRegistry) Register(context Context, name string, expand GeneratorFunc, data any, dataFree func(any)) error {
	key := generatorKey{context: context, name: name}
	if _, exists := r.entries[key]; exists {
		r.diag.Debug("duplicate block generator registration rejected",
			slog.String("context", context.String()), slog.String("name", name))
		if dataFree != nil {
			dataFree(data)
		}
		return fmt.Errorf("block generator %s/%s already registered", context, name)
	}
	r.entries[key] = &blockGenerator{context: context, name: name, expand: expand, data: data, dataFree: dataFree}
	return nil
}

// Find looks up a generator for (context, name), falling back to a
// ContextAny registration under the same name.
func (r *BlockGeneratorRegistry) Find(context Context, name string) (*blockGenerator, bool) {
	if g, ok := r.entries[generatorKey{context: context, name: name}]; ok {
		return g, true
	}
	g, ok := r.entries[generatorKey{context: ContextAny, name: name}]
	return g, ok
}

// Close releases every generator's data via its dataFree, as destruction
// of the owning facade requires.
func (r *BlockGeneratorRegistry) Close() {
	for _, g := range r.entries {
		if g.dataFree != nil {
			g.dataFree(g.data)
		}
	}
	r.entries = make(map[generatorKey]*blockGenerator)
}

// UserBlock is a user-defined, parameterized snippet: a back-tick template
// plus the argument names it accepts (with their defaults).
type UserBlock struct {
	Template string
	ArgDefs  ArgMap
}

// VarArgsKey is the reserved ArgMap key __VARARGS__ synthesizes under.
// A caller-supplied value under this key is overwritten rather than
// preserved; see DESIGN.md for the reasoning.
const VarArgsKey = "__varargs__"

// computeVarArgs formats every key in args not present in defs as
// "name(value) ", concatenated in args' stable iteration order, and
// stores the result under VarArgsKey, overwriting any existing value.
func computeVarArgs(args *ArgMap, defs ArgMap) {
	var b strings.Builder
	args.ForEach(func(k, v string) {
		if k == VarArgsKey {
			return
		}
		if _, ok := defs.Get(k); ok {
			return
		}
		fmt.Fprintf(&b, "%s(%s) ", k, v)
	})
	args.Set(VarArgsKey, b.String())
}

// NewUserBlockGenerator adapts a UserBlock into a GeneratorFunc: it
// synthesizes __VARARGS__, substitutes the template against (args,
// arg_defs, globals), and on success pushes the result as a new buffer
// include frame named "<context> block <name>".
func NewUserBlockGenerator(block *UserBlock, sub *Substitutor) GeneratorFunc {
	return func(f *Facade, ctx Context, name string, args ArgMap) error {
		computeVarArgs(&args, block.ArgDefs)
		text, err := sub.Substitute(block.Template, args, block.ArgDefs, f.cfg.Globals)
		if err != nil {
			f.cfg.Diag.Warn("block expansion failed",
				slog.String("context", ctx.String()), slog.String("name", name), slog.String("error", err.Error()))
			return err
		}
		frameName := fmt.Sprintf("%s block %s", ctx, name)
		return f.incStack.PushBuffer(frameName, []byte(text))
	}
}
