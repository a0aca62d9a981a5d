package bytecode

import (
	"fmt"

	"github.com/Blunkie/RuneScript/ast"
	"github.com/Blunkie/RuneScript/sym"
	"github.com/Blunkie/RuneScript/types"
)

// Generator lowers one analyzed AST script at a time into a Script of
// labeled, branch-terminated blocks.
type Generator struct {
	imap  *InstructionMap
	table *sym.Table

	script   *Script
	labelSeq int

	// cur is the active block emission appends to. Every control
	// construct here only ever moves cur forward to a freshly bound
	// successor (if_end, while_end, ...); nothing resumes an earlier
	// block as current, so one pointer — not a literal stack — is
	// enough to track "which block recursive emission appends into".
	cur *Block
}

// New creates a generator that remaps CoreOpcodes through imap and
// resolves constants/commands/variables against table.
func New(imap *InstructionMap, table *sym.Table) *Generator {
	return &Generator{imap: imap, table: table}
}

func (g *Generator) genLabel(prefix string) Label {
	g.labelSeq++
	return Label(fmt.Sprintf("%s_%d", prefix, g.labelSeq))
}

func (g *Generator) current() *Block { return g.cur }

// bindBlock creates a fresh block with the given label, registers it on
// the script, and makes it the current emission target.
func (g *Generator) bindBlock(label Label) *Block {
	b := &Block{Label: label}
	g.script.Blocks = append(g.script.Blocks, b)
	g.cur = b
	return b
}

func (g *Generator) emit(core CoreOpcode, operand Operand) {
	g.current().Append(g.imap.Remap(core), operand)
}

// Generate lowers a single script into its bytecode form.
func (g *Generator) Generate(s *ast.Script, locals *LocalMap) *Script {
	g.script = &Script{FullName: s.FullName(), Locals: locals}
	g.labelSeq = 0
	g.cur = nil

	for _, p := range s.Params {
		locals.Declare(p.Name, p.Type)
	}

	g.bindBlock(EntryLabel)
	for _, stmt := range s.Body {
		g.genStmt(stmt)
	}
	return g.script
}

func (g *Generator) genStmt(stmt ast.Stmt) {
	switch t := stmt.(type) {
	case *ast.BlockStmt:
		for _, s := range t.Stmts {
			g.genStmt(s)
		}

	case *ast.IfStmt:
		g.genIf(t)

	case *ast.WhileStmt:
		g.genWhile(t)

	case *ast.SwitchStmt:
		g.genSwitch(t)

	case *ast.ReturnStmt:
		for _, v := range t.Values {
			g.genExpr(v)
		}
		g.emit(Return, NoOperand())

	case *ast.ExprStmt:
		g.genExpr(t.X)
		g.genDiscard(resolvedExprType(t.X))

	case *ast.VarDeclStmt:
		slot := g.script.Locals.Declare(t.Name, t.Type)
		if t.Init != nil {
			g.genExpr(t.Init)
			g.emitLocalStore(t.Type, slot)
		}
	}
}

// directBranchOp reports whether a binary op has a dedicated comparison
// branch opcode, letting the condition be lowered without materializing a
// boolean value on the stack first.
func directBranchOp(op ast.BinOpKind) (CoreOpcode, bool) {
	switch op {
	case ast.OpEq:
		return BranchEquals, true
	case ast.OpLt:
		return BranchLessThan, true
	case ast.OpGt:
		return BranchGreaterThan, true
	case ast.OpLe:
		return BranchLessThanOrEquals, true
	case ast.OpGe:
		return BranchGreaterThanOrEquals, true
	}
	return 0, false
}

// genCondition lowers cond and emits the branch to trueLabel from the
// current block, leaving the caller to emit the fallthrough branch.
func (g *Generator) genCondition(cond ast.Expr, trueLabel Label) {
	if bin, ok := cond.(*ast.BinOpExpr); ok {
		if branchOp, ok := directBranchOp(bin.Op); ok {
			g.genExpr(bin.Left)
			g.genExpr(bin.Right)
			g.emit(branchOp, LabelOperand(trueLabel))
			return
		}
	}
	g.genExpr(cond)
	g.emit(BranchIfTrue, LabelOperand(trueLabel))
}

func (g *Generator) genIf(s *ast.IfStmt) {
	trueLabel := g.genLabel("if_true")
	hasElse := s.Else != nil
	var elseLabel Label
	if hasElse {
		elseLabel = g.genLabel("if_else")
	}
	endLabel := g.genLabel("if_end")

	g.genCondition(s.Cond, trueLabel)
	if hasElse {
		g.emit(Branch, LabelOperand(elseLabel))
	} else {
		g.emit(Branch, LabelOperand(endLabel))
	}

	g.bindBlock(trueLabel)
	g.genStmt(s.Then)
	g.emit(Branch, LabelOperand(endLabel))

	if hasElse {
		g.bindBlock(elseLabel)
		g.genStmt(s.Else)
		g.emit(Branch, LabelOperand(endLabel))
	}

	g.bindBlock(endLabel)
}

func (g *Generator) genWhile(s *ast.WhileStmt) {
	condLabel := g.genLabel("while_cond")
	bodyLabel := g.genLabel("while_body")
	endLabel := g.genLabel("while_end")

	g.emit(Branch, LabelOperand(condLabel))

	g.bindBlock(condLabel)
	g.genCondition(s.Cond, bodyLabel)
	g.emit(Branch, LabelOperand(endLabel))

	g.bindBlock(bodyLabel)
	g.genStmt(s.Body)
	g.emit(Branch, LabelOperand(condLabel))

	g.bindBlock(endLabel)
}

func (g *Generator) genSwitch(s *ast.SwitchStmt) {
	endLabel := g.genLabel("switch_end")

	var caseLabels []Label
	var defaultLabel Label
	hasDefault := false
	for _, c := range s.Cases {
		if c.IsDefault {
			defaultLabel = g.genLabel("switch_default")
			hasDefault = true
			continue
		}
		caseLabels = append(caseLabels, g.genLabel("switch_case"))
	}

	// Dispatch: for every case value, re-evaluate the subject and branch
	// to that case's block on equality. No jump table — a decision chain,
	// matching the absence of any optimization pass in this compiler.
	ci := 0
	for _, c := range s.Cases {
		if c.IsDefault {
			continue
		}
		for _, v := range c.Values {
			g.genExpr(s.Subject)
			g.genExpr(v)
			g.emit(BranchEquals, LabelOperand(caseLabels[ci]))
		}
		ci++
	}
	if hasDefault {
		g.emit(Branch, LabelOperand(defaultLabel))
	} else {
		g.emit(Branch, LabelOperand(endLabel))
	}

	ci = 0
	for _, c := range s.Cases {
		if c.IsDefault {
			g.bindBlock(defaultLabel)
		} else {
			g.bindBlock(caseLabels[ci])
			ci++
		}
		for _, stmt := range c.Body {
			g.genStmt(stmt)
		}
		g.emit(Branch, LabelOperand(endLabel))
	}

	g.bindBlock(endLabel)
}

// genDiscard emits one POP_*_DISCARD per flattened element of t, grouped
// by stack domain, for an expression evaluated as a statement.
func (g *Generator) genDiscard(t types.Type) {
	for i := 0; i < t.CountInDomain(types.INT); i++ {
		g.emit(PopIntDiscard, NoOperand())
	}
	for i := 0; i < t.CountInDomain(types.STRING); i++ {
		g.emit(PopStringDiscard, NoOperand())
	}
	for i := 0; i < t.CountInDomain(types.LONG); i++ {
		g.emit(PopLongDiscard, NoOperand())
	}
}

func (g *Generator) emitLocalStore(prim types.Primitive, slot int) {
	switch prim.Domain() {
	case types.STRING:
		g.emit(PopStringLocal, LocalSlotOperand(slot))
	case types.LONG:
		g.emit(PopLongLocal, LocalSlotOperand(slot))
	default:
		g.emit(PopIntLocal, LocalSlotOperand(slot))
	}
}

func (g *Generator) emitLocalPush(prim types.Primitive, slot int) {
	switch prim.Domain() {
	case types.STRING:
		g.emit(PushStringLocal, LocalSlotOperand(slot))
	case types.LONG:
		g.emit(PushLongLocal, LocalSlotOperand(slot))
	default:
		g.emit(PushIntLocal, LocalSlotOperand(slot))
	}
}

func (g *Generator) genExpr(e ast.Expr) {
	switch t := e.(type) {
	case *ast.BoolLit:
		v := int32(0)
		if t.Value {
			v = 1
		}
		g.emit(PushIntConstant, IntOperand(v))

	case *ast.IntLit:
		g.emit(PushIntConstant, IntOperand(t.Value))

	case *ast.LongLit:
		g.emit(PushLongConstant, LongOperand(t.Value))

	case *ast.StringLit:
		g.emit(PushStringConstant, StringOperand(t.Value))

	case *ast.ConcatExpr:
		for _, p := range t.Parts {
			g.genExpr(p)
		}
		g.emit(JoinString, IntOperand(int32(len(t.Parts))))

	case *ast.VarRefExpr:
		g.genVarRef(t)

	case *ast.ConstRefExpr:
		g.genConstRef(t)

	case *ast.GosubExpr:
		for _, arg := range t.Args {
			g.genExpr(arg)
		}
		info, _ := g.table.LookupScript("proc", t.Name)
		g.emit(GosubWithParams, ScriptOperand(info))

	case *ast.CommandExpr:
		for _, arg := range t.Args {
			g.genExpr(arg)
		}
		info, _ := g.table.LookupCommand(t.Name)
		alt := int32(0)
		if info.Alternative {
			alt = 1
		}
		g.current().Append(Opcode(info.Opcode), IntOperand(alt))

	case *ast.BinOpExpr:
		g.genBinOpValue(t)

	case *ast.DynamicExpr:
		// no value to push; this expression failed to parse cleanly and
		// was already diagnosed upstream
	}
}

// genBinOpValue lowers a binary operator used as a value (not as an
// if/while condition, which genCondition handles separately with a direct
// branch and no materialized boolean). Arithmetic ops have a dedicated
// value-producing opcode; comparison and logical ops don't, so their
// result is materialized by branching to one of two pushed constants.
func (g *Generator) genBinOpValue(b *ast.BinOpExpr) {
	switch b.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		g.genExpr(b.Left)
		g.genExpr(b.Right)
		g.emit(arithOpcode(b.Op), NoOperand())

	case ast.OpEq, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		branchOp, _ := directBranchOp(b.Op)
		g.genExpr(b.Left)
		g.genExpr(b.Right)
		g.materializeBranch(branchOp, 1, 0)

	case ast.OpNe:
		g.genExpr(b.Left)
		g.genExpr(b.Right)
		g.materializeBranch(BranchEquals, 0, 1)

	case ast.OpAnd:
		g.genAnd(b)

	case ast.OpOr:
		g.genOr(b)
	}
}

// materializeBranch assumes the operands a branch instruction needs are
// already on the stack. It emits the branch, pushes valueIfNotTaken on the
// fallthrough path, then binds a block for the taken path that pushes
// valueIfTaken, with both paths joining at a shared end block.
func (g *Generator) materializeBranch(branchOp CoreOpcode, valueIfTaken, valueIfNotTaken int32) {
	takenLabel := g.genLabel("bool_taken")
	endLabel := g.genLabel("bool_end")

	g.emit(branchOp, LabelOperand(takenLabel))
	g.emit(PushIntConstant, IntOperand(valueIfNotTaken))
	g.emit(Branch, LabelOperand(endLabel))

	g.bindBlock(takenLabel)
	g.emit(PushIntConstant, IntOperand(valueIfTaken))
	g.emit(Branch, LabelOperand(endLabel))

	g.bindBlock(endLabel)
}

// genAnd lowers & with short-circuit evaluation: the right operand is
// only evaluated when the left one is true.
func (g *Generator) genAnd(b *ast.BinOpExpr) {
	checkRightLabel := g.genLabel("and_rhs")
	trueLabel := g.genLabel("and_true")
	endLabel := g.genLabel("and_end")

	g.genExpr(b.Left)
	g.emit(BranchIfTrue, LabelOperand(checkRightLabel))
	g.emit(PushIntConstant, IntOperand(0))
	g.emit(Branch, LabelOperand(endLabel))

	g.bindBlock(checkRightLabel)
	g.genExpr(b.Right)
	g.emit(BranchIfTrue, LabelOperand(trueLabel))
	g.emit(PushIntConstant, IntOperand(0))
	g.emit(Branch, LabelOperand(endLabel))

	g.bindBlock(trueLabel)
	g.emit(PushIntConstant, IntOperand(1))
	g.emit(Branch, LabelOperand(endLabel))

	g.bindBlock(endLabel)
}

// genOr lowers | with short-circuit evaluation: the right operand is
// only evaluated when the left one is false. Unlike genAnd, the "evaluate
// the other side" path needs no block of its own: it's a plain fallthrough
// of BranchIfTrue's not-taken case within the same block.
func (g *Generator) genOr(b *ast.BinOpExpr) {
	trueLabel := g.genLabel("or_true")
	endLabel := g.genLabel("or_end")

	g.genExpr(b.Left)
	g.emit(BranchIfTrue, LabelOperand(trueLabel))
	g.genExpr(b.Right)
	g.emit(BranchIfTrue, LabelOperand(trueLabel))
	g.emit(PushIntConstant, IntOperand(0))
	g.emit(Branch, LabelOperand(endLabel))

	g.bindBlock(trueLabel)
	g.emit(PushIntConstant, IntOperand(1))
	g.emit(Branch, LabelOperand(endLabel))

	g.bindBlock(endLabel)
}

func arithOpcode(op ast.BinOpKind) CoreOpcode {
	switch op {
	case ast.OpAdd:
		return ArithAdd
	case ast.OpSub:
		return ArithSub
	case ast.OpMul:
		return ArithMul
	case ast.OpDiv:
		return ArithDiv
	case ast.OpMod:
		return ArithMod
	}
	panic(fmt.Sprintf("bytecode: binary op %d has no value-producing opcode; should have been lowered as a branch condition", op))
}

func (g *Generator) genVarRef(v *ast.VarRefExpr) {
	switch v.Domain {
	case ast.VarLocal:
		prim := resolvedPrimitive(v)
		slot, _ := g.script.Locals.Lookup(v.Name, prim.Domain())
		g.emitLocalPush(prim, slot)
	case ast.VarPlayer:
		info, _ := g.table.LookupVariable("PLAYER", v.Name)
		g.emit(PushVarp, VariableOperand(info))
	case ast.VarPlayerBit:
		info, _ := g.table.LookupVariable("PLAYER_BIT", v.Name)
		g.emit(PushVarpBit, VariableOperand(info))
	case ast.VarClientInt:
		info, _ := g.table.LookupVariable("CLIENT_INT", v.Name)
		g.emit(PushVarcInt, VariableOperand(info))
	case ast.VarClientString:
		info, _ := g.table.LookupVariable("CLIENT_STRING", v.Name)
		g.emit(PushVarcString, VariableOperand(info))
	}
}

func (g *Generator) genConstRef(c *ast.ConstRefExpr) {
	info, ok := g.table.LookupConstant(c.Name)
	if !ok {
		return
	}
	switch info.Type.Domain() {
	case types.STRING:
		s, _ := info.Value.(string)
		g.emit(PushStringConstant, StringOperand(s))
	case types.LONG:
		l, _ := info.Value.(int64)
		g.emit(PushLongConstant, LongOperand(l))
	default:
		switch v := info.Value.(type) {
		case bool:
			iv := int32(0)
			if v {
				iv = 1
			}
			g.emit(PushIntConstant, IntOperand(iv))
		case int32:
			g.emit(PushIntConstant, IntOperand(v))
		case int:
			g.emit(PushIntConstant, IntOperand(int32(v)))
		}
	}
}

// resolvedPrimitive and resolvedExprType pull an expression's analyzed
// type back out via a type switch, mirroring sema's own dispatch rather
// than threading an extra parameter through every genExpr call.
func resolvedExprType(e ast.Expr) types.Type {
	switch t := e.(type) {
	case *ast.BoolLit:
		return t.ResolvedType
	case *ast.IntLit:
		return t.ResolvedType
	case *ast.LongLit:
		return t.ResolvedType
	case *ast.StringLit:
		return t.ResolvedType
	case *ast.ConcatExpr:
		return t.ResolvedType
	case *ast.VarRefExpr:
		return t.ResolvedType
	case *ast.ConstRefExpr:
		return t.ResolvedType
	case *ast.GosubExpr:
		return t.ResolvedType
	case *ast.CommandExpr:
		return t.ResolvedType
	case *ast.BinOpExpr:
		return t.ResolvedType
	case *ast.DynamicExpr:
		return t.ResolvedType
	}
	return types.Void()
}

func resolvedPrimitive(v *ast.VarRefExpr) types.Primitive {
	if v.ResolvedType.IsScalar() {
		return v.ResolvedType.Scalar()
	}
	return types.PrimInt
}
