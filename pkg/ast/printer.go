package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/minicc/pkg/layout"
)

// Printer outputs the AST as MiniC source. Binary operations are fully
// parenthesized so the printed form shows how the parser grouped them.
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints a complete program
func (p *Printer) PrintProgram(prog *Program) {
	for _, inc := range prog.Includes {
		fmt.Fprintf(p.w, "#include \"%s\"\n", inc)
	}
	for _, d := range prog.Decls {
		p.printDecl(d)
		fmt.Fprintln(p.w)
	}
}

// ExprString renders one expression
func ExprString(e Expr) string {
	var sb strings.Builder
	NewPrinter(&sb).printExpr(e)
	return sb.String()
}

// Declarator renders "type name" with array dimensions after the name
func Declarator(typ layout.Type, name string) string {
	var dims strings.Builder
	for {
		a, ok := typ.(layout.Tarray)
		if !ok {
			break
		}
		fmt.Fprintf(&dims, "[%d]", a.Len)
		typ = a.Elem
	}
	return typ.String() + " " + name + dims.String()
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printDecl(d Decl) {
	switch d := d.(type) {
	case *StructDecl:
		fmt.Fprintf(p.w, "struct %s {\n", d.Name)
		p.printFields(d.Fields)
		fmt.Fprintln(p.w, "};")
	case *ClassDecl:
		fmt.Fprintf(p.w, "class %s", d.Name)
		if d.Parent != "" {
			fmt.Fprintf(p.w, " extends %s", d.Parent)
		}
		fmt.Fprintln(p.w, " {")
		p.printFields(d.Fields)
		p.indent++
		for _, m := range d.Methods {
			p.writeIndent()
			p.printFunDecl(m)
		}
		p.indent--
		fmt.Fprintln(p.w, "}")
	case *GlobalDecl:
		fmt.Fprintf(p.w, "%s;\n", Declarator(d.Var.Type, d.Var.Name))
	case *FunDecl:
		p.printFunDecl(d)
	default:
		fmt.Fprintf(p.w, "/* unknown decl %T */\n", d)
	}
}

func (p *Printer) printFields(fields []*VarDecl) {
	p.indent++
	for _, f := range fields {
		p.writeIndent()
		fmt.Fprintf(p.w, "%s;\n", Declarator(f.Type, f.Name))
	}
	p.indent--
}

func (p *Printer) printFunDecl(f *FunDecl) {
	fmt.Fprintf(p.w, "%s %s(", f.Return, f.Name)
	for i, prm := range f.Params {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprint(p.w, Declarator(prm.Type, prm.Name))
	}
	if f.Body == nil {
		fmt.Fprintln(p.w, ");")
		return
	}
	fmt.Fprintln(p.w, ")")
	p.printBlock(f.Body)
}

func (p *Printer) printBlock(b *Block) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	for _, d := range b.Decls {
		p.writeIndent()
		fmt.Fprintf(p.w, "%s;\n", Declarator(d.Type, d.Name))
	}
	for _, s := range b.Stmts {
		p.printStmt(s)
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printStmt(stmt Stmt) {
	if b, ok := stmt.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.writeIndent()
	switch s := stmt.(type) {
	case *Return:
		fmt.Fprint(p.w, "return")
		if s.Value != nil {
			fmt.Fprint(p.w, " ")
			p.printExpr(s.Value)
		}
		fmt.Fprintln(p.w, ";")
	case *ExprStmt:
		p.printExpr(s.X)
		fmt.Fprintln(p.w, ";")
	case *If:
		fmt.Fprint(p.w, "if (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Then)
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.printBody(s.Else)
		}
	case *While:
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Body)
	case *Break:
		fmt.Fprintln(p.w, "break;")
	case *Continue:
		fmt.Fprintln(p.w, "continue;")
	default:
		fmt.Fprintf(p.w, "/* unknown stmt %T */;\n", stmt)
	}
}

// printBody prints a nested statement; blocks stay at the current indent
func (p *Printer) printBody(s Stmt) {
	if _, ok := s.(*Block); ok {
		p.printStmt(s)
		return
	}
	p.indent++
	p.printStmt(s)
	p.indent--
}

func (p *Printer) printExpr(expr Expr) {
	switch e := expr.(type) {
	case *IntLit:
		fmt.Fprintf(p.w, "%d", e.Value)
	case *CharLit:
		fmt.Fprintf(p.w, "'%s'", escape(string([]byte{e.Value}), '\''))
	case *StringLit:
		fmt.Fprintf(p.w, "\"%s\"", escape(e.Value, '"'))
	case *VarRef:
		fmt.Fprint(p.w, e.Name)
	case *Binary:
		fmt.Fprint(p.w, "(")
		p.printExpr(e.Left)
		fmt.Fprintf(p.w, " %s ", e.Op)
		p.printExpr(e.Right)
		fmt.Fprint(p.w, ")")
	case *Unary:
		fmt.Fprint(p.w, e.Op.String())
		p.printExpr(e.Operand)
	case *Assign:
		p.printExpr(e.Target)
		fmt.Fprint(p.w, " = ")
		p.printExpr(e.Value)
	case *Cast:
		fmt.Fprintf(p.w, "(%s)", e.To)
		p.printExpr(e.Expr)
	case *Sizeof:
		fmt.Fprintf(p.w, "sizeof(%s)", e.Of)
	case *Index:
		p.printExpr(e.Array)
		fmt.Fprint(p.w, "[")
		p.printExpr(e.Index)
		fmt.Fprint(p.w, "]")
	case *FieldAccess:
		p.printExpr(e.Receiver)
		fmt.Fprintf(p.w, ".%s", e.Name)
	case *Call:
		fmt.Fprint(p.w, e.Name)
		p.printArgs(e.Args)
	case *MethodCall:
		p.printExpr(e.Receiver)
		fmt.Fprintf(p.w, ".%s", e.Name)
		p.printArgs(e.Args)
	default:
		fmt.Fprintf(p.w, "/* unknown expr %T */", expr)
	}
}

func (p *Printer) printArgs(args []Expr) {
	fmt.Fprint(p.w, "(")
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		p.printExpr(a)
	}
	fmt.Fprint(p.w, ")")
}

func escape(s string, quote byte) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		case '\\':
			sb.WriteString(`\\`)
		case quote:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
