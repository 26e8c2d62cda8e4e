package mdhavers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEveryNodeHasSpan(t *testing.T) {
	prog, err := Parse(`ken x = 1
gin x > 0 {
    blether x
}`)
	require.NoError(t, err)
	for _, s := range prog.Stmts {
		assert.NotZero(t, s.stmtSpan())
	}
}

func TestParseVarDeclSimple(t *testing.T) {
	prog, err := Parse(`ken x = 1`)
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 1)
	decl, ok := prog.Stmts[0].(*VarDeclStmt)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Pat.Name)
}

func TestParseVarDeclListPatternWithRest(t *testing.T) {
	prog, err := Parse(`ken [a, b, ...rest] = [1, 2, 3, 4]`)
	require.NoError(t, err)
	decl, ok := prog.Stmts[0].(*VarDeclStmt)
	require.True(t, ok)
	assert.True(t, decl.Pat.IsList)
	assert.Equal(t, []string{"a", "b"}, decl.Pat.List)
	assert.Equal(t, "rest", decl.Pat.Rest)
}

func TestParseForIteratesExpr(t *testing.T) {
	prog, err := Parse(`fer i in 1..=3 { blether i }`)
	require.NoError(t, err)
	forStmt, ok := prog.Stmts[0].(*ForStmt)
	require.True(t, ok)
	assert.Equal(t, "i", forStmt.Name)
}

func TestParseMatchArmsAndDefault(t *testing.T) {
	prog, err := Parse(`keek x {
    whan 1 -> blether "one"
    whan 2 -> blether "two"
    ither -> blether "other"
}`)
	require.NoError(t, err)
	m, ok := prog.Stmts[0].(*MatchStmt)
	require.True(t, ok)
	require.Len(t, m.Arms, 3)
	assert.Nil(t, m.Arms[2].Lit)
}

func TestParseFetchWithAlias(t *testing.T) {
	prog, err := Parse(`fetch "mod" tae m`)
	require.NoError(t, err)
	imp, ok := prog.Stmts[0].(*ImportStmt)
	require.True(t, ok)
	assert.Equal(t, "mod", imp.Path)
	assert.Equal(t, "m", imp.Alias)
}

func TestParseTryCatchBindsName(t *testing.T) {
	prog, err := Parse(`hae_a_bash {
    hurl "boom"
} gin_it_gangs_wrang e {
    blether e
}`)
	require.NoError(t, err)
	tr, ok := prog.Stmts[0].(*TryStmt)
	require.True(t, ok)
	assert.Equal(t, "e", tr.CatchName)
}

// --- Error paths spec.md §4.2 enumerates explicitly ---

func TestParseUnclosedGrouping(t *testing.T) {
	_, err := Parse(`ken x = (1 + 2`)
	require.Error(t, err)
}

func TestParseUnclosedList(t *testing.T) {
	_, err := Parse(`ken x = [1, 2, 3`)
	require.Error(t, err)
}

func TestParseMissingSeparatorBetweenStatements(t *testing.T) {
	_, err := Parse(`ken x = 1 2`)
	require.Error(t, err)
}

func TestParseDictLiteralMissingColon(t *testing.T) {
	_, err := Parse(`ken x = {"a" 1}`)
	require.Error(t, err)
}

func TestParseDictLiteralMissingComma(t *testing.T) {
	_, err := Parse(`ken x = {"a": 1 "b": 2}`)
	require.Error(t, err)
}

func TestParseMatchArmMissingArrow(t *testing.T) {
	_, err := Parse(`keek x { whan 1 blether "one" }`)
	require.Error(t, err)
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, err := Parse(`1 + 1 = 2`)
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseImportNonStringPath(t *testing.T) {
	_, err := Parse(`fetch 123`)
	require.Error(t, err)
	var uerr *UnexpectedToken
	assert.ErrorAs(t, err, &uerr)
}

func TestParseImportNonIdentifierAlias(t *testing.T) {
	_, err := Parse(`fetch "mod" tae 123`)
	require.Error(t, err)
	var uerr *UnexpectedToken
	assert.ErrorAs(t, err, &uerr)
}

func TestParseCallIndexMemberChaining(t *testing.T) {
	prog, err := Parse(`foo(1)[0].bar`)
	require.NoError(t, err)
	stmt, ok := prog.Stmts[0].(*ExprStmt)
	require.True(t, ok)
	member, ok := stmt.Expr.(*MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "bar", member.Name)
	_, ok = member.Recv.(*IndexExpr)
	assert.True(t, ok)
}

func TestParsePrecedenceOrAnBindsLoosest(t *testing.T) {
	prog, err := Parse(`blether 1 == 1 an 2 == 2 or nae`)
	require.NoError(t, err)
	stmt := prog.Stmts[0].(*PrintStmt)
	or, ok := stmt.Value.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "or", or.Op)
	an, ok := or.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "an", an.Op)
}

func TestParseLambdaLiteral(t *testing.T) {
	prog, err := Parse(`ken f = |x, y| x + y`)
	require.NoError(t, err)
	decl := prog.Stmts[0].(*VarDeclStmt)
	lambda, ok := decl.Expr.(*LambdaLit)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, lambda.Params)
}
