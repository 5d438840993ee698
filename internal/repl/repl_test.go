package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/steveyegge/triage/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	ticket    string
	requester string
}

type fakeProcessor struct {
	submissions []submission
	result      types.Result
	err         error
}

func (f *fakeProcessor) Process(ctx context.Context, ticket, requester string) (types.Result, error) {
	f.submissions = append(f.submissions, submission{ticket, requester})
	return f.result, f.err
}

func (f *fakeProcessor) Departments() *types.DepartmentTable {
	return types.DefaultDepartmentTable()
}

func newTestREPL(t *testing.T, p *fakeProcessor, requester string) (*REPL, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r, err := New(&Config{Processor: p, Requester: requester, Out: &out})
	require.NoError(t, err)
	return r, &out
}

func TestNewRequiresProcessor(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
	_, err = New(nil)
	assert.Error(t, err)
}

func TestProcessInputSubmitsTicket(t *testing.T) {
	p := &fakeProcessor{result: types.SavedResult(types.DepartmentSupport)}
	r, out := newTestREPL(t, p, "Ana")

	require.NoError(t, r.processInput("  My laptop won't turn on  "))

	require.Len(t, p.submissions, 1)
	assert.Equal(t, submission{"My laptop won't turn on", "Ana"}, p.submissions[0])
	assert.Contains(t, out.String(), "ticket saved")
	assert.Contains(t, out.String(), "Departamento: soporte tecnico")
}

func TestProcessInputShowsDuplicate(t *testing.T) {
	p := &fakeProcessor{result: types.DuplicateResult(types.DepartmentSupport, "My laptop won't turn on")}
	r, out := newTestREPL(t, p, "Luis")

	require.NoError(t, r.processInput("my laptop does not start"))
	assert.Contains(t, out.String(), "duplicate found: My laptop won't turn on")
}

func TestProcessInputPropagatesErrors(t *testing.T) {
	p := &fakeProcessor{err: &types.UnknownDepartmentError{Label: "facturación"}}
	r, _ := newTestREPL(t, p, "Ana")

	err := r.processInput("factura")
	assert.True(t, errors.Is(err, types.ErrUnknownDepartment))
}

func TestProcessInputIgnoresBlankLines(t *testing.T) {
	p := &fakeProcessor{}
	r, _ := newTestREPL(t, p, "Ana")

	require.NoError(t, r.processInput("   "))
	assert.Empty(t, p.submissions)
}

func TestSubmitRequiresName(t *testing.T) {
	p := &fakeProcessor{}
	r, _ := newTestREPL(t, p, "")

	assert.Error(t, r.processInput("printer jammed"))
	assert.Empty(t, p.submissions)
}

func TestNameCommand(t *testing.T) {
	p := &fakeProcessor{result: types.SavedResult(types.DepartmentHR)}
	r, out := newTestREPL(t, p, "Ana")

	require.NoError(t, r.processInput("/name María José"))
	assert.Contains(t, out.String(), "Requester set to María José")

	require.NoError(t, r.processInput("vacaciones"))
	assert.Equal(t, "María José", p.submissions[0].requester)

	assert.Error(t, r.processInput("/name"))
	assert.Error(t, r.processInput("/name Ana, Luis"))
	assert.Equal(t, "María José", r.requester)
}

func TestDepartmentsCommand(t *testing.T) {
	r, out := newTestREPL(t, &fakeProcessor{}, "Ana")

	require.NoError(t, r.processInput("/departments"))
	for _, dept := range types.DefaultDepartments() {
		assert.Contains(t, out.String(), dept.Label)
		assert.Contains(t, out.String(), dept.File)
	}
}

func TestHelpAndUnknownCommand(t *testing.T) {
	r, out := newTestREPL(t, &fakeProcessor{}, "Ana")

	require.NoError(t, r.processInput("/help"))
	assert.Contains(t, out.String(), "/departments")

	assert.Error(t, r.processInput("/bogus"))
}

func TestExitCommands(t *testing.T) {
	p := &fakeProcessor{}
	r, _ := newTestREPL(t, p, "Ana")

	for _, line := range []string{"exit", "quit", "/exit", "/quit"} {
		err := r.processInput(line)
		assert.True(t, errors.Is(err, errExit), line)
	}
	assert.Empty(t, p.submissions)
}

func TestValidateName(t *testing.T) {
	name, err := validateName("  Ana  ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", name)

	for _, bad := range []string{"", "  ", "a,b", "[x]"} {
		_, err := validateName(bad)
		assert.Error(t, err, bad)
	}
}

// scriptedReader replays lines, then reports io.EOF
type scriptedReader struct {
	lines   []string
	errs    []error
	prompts []string
}

func (s *scriptedReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line, err := s.lines[0], s.errs[0]
	s.lines, s.errs = s.lines[1:], s.errs[1:]
	return line, err
}

func (s *scriptedReader) SetPrompt(prompt string) {
	s.prompts = append(s.prompts, prompt)
}

func script(lines ...string) *scriptedReader {
	return &scriptedReader{lines: lines, errs: make([]error, len(lines))}
}

func TestRunEOFAtNamePromptExitsCleanly(t *testing.T) {
	p := &fakeProcessor{}
	r, out := newTestREPL(t, p, "")

	err := r.run(context.Background(), script())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Hasta luego!")
	assert.Empty(t, p.submissions)
}

func TestRunAsksNameThenSubmits(t *testing.T) {
	p := &fakeProcessor{result: types.SavedResult(types.DepartmentSupport)}
	r, out := newTestREPL(t, p, "")

	reader := script("  ", "Ana", "My laptop won't turn on", "exit", "never read")
	require.NoError(t, r.run(context.Background(), reader))

	require.Len(t, p.submissions, 1)
	assert.Equal(t, submission{"My laptop won't turn on", "Ana"}, p.submissions[0])
	assert.Contains(t, out.String(), "name cannot be empty")
	assert.Equal(t, namePrompt, reader.prompts[0])
	assert.Equal(t, []string{"never read"}, reader.lines)
}

func TestRunInterruptAndEOF(t *testing.T) {
	p := &fakeProcessor{result: types.SavedResult(types.DepartmentHR)}
	r, _ := newTestREPL(t, p, "Ana")

	reader := script("ignored", "vacaciones")
	reader.errs[0] = readline.ErrInterrupt
	require.NoError(t, r.run(context.Background(), reader))

	require.Len(t, p.submissions, 1)
	assert.Equal(t, "vacaciones", p.submissions[0].ticket)
}

func TestRunReportsErrorsAndContinues(t *testing.T) {
	p := &fakeProcessor{err: &types.UnknownDepartmentError{Label: "facturación"}}
	r, out := newTestREPL(t, p, "Ana")

	require.NoError(t, r.run(context.Background(), script("factura", "otra factura")))
	assert.Len(t, p.submissions, 2)
	assert.Contains(t, out.String(), "facturación")
}
