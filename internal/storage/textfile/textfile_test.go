package textfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/steveyegge/triage/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var supportDept = types.Department{Label: types.DepartmentSupport, File: "soporte_tecnico.txt"}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   types.TicketRecord
		wantOK bool
	}{
		{
			name:   "single requester",
			line:   "[Ana] My laptop won't turn on",
			want:   types.TicketRecord{Requesters: []string{"Ana"}, Text: "My laptop won't turn on"},
			wantOK: true,
		},
		{
			name:   "multiple requesters with odd spacing",
			line:   "  [ Luis ,Ana,  Marta ]   VPN keeps dropping  \r",
			want:   types.TicketRecord{Requesters: []string{"Luis", "Ana", "Marta"}, Text: "VPN keeps dropping"},
			wantOK: true,
		},
		{
			name:   "empty names dropped",
			line:   "[Ana, , ] printer",
			want:   types.TicketRecord{Requesters: []string{"Ana"}, Text: "printer"},
			wantOK: true,
		},
		{
			name:   "text keeps later brackets",
			line:   "[Ana] error [code 42] on login",
			want:   types.TicketRecord{Requesters: []string{"Ana"}, Text: "error [code 42] on login"},
			wantOK: true,
		},
		{name: "no leading bracket", line: "Ana] printer", wantOK: false},
		{name: "no closing bracket", line: "[Ana printer", wantOK: false},
		{name: "plain text", line: "just a note", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatRecord(t *testing.T) {
	assert.Equal(t, "[Luis, Ana] My laptop won't turn on",
		FormatRecord(types.TicketRecord{Requesters: []string{"Luis", "Ana"}, Text: "My laptop won't turn on"}))
	assert.Equal(t, "[Ana]", FormatRecord(types.TicketRecord{Requesters: []string{"Ana"}, Text: "  "}))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := New(t.TempDir())

	records, err := store.Load(context.Background(), supportDept)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := "[Ana] printer jammed\nnot a record\n\n[broken line\n[Luis, Ana] VPN down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, supportDept.File), []byte(content), 0644))

	records, err := New(dir).Load(context.Background(), supportDept)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "printer jammed", records[0].Text)
	assert.Equal(t, []string{"Luis", "Ana"}, records[1].Requesters)
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(filepath.Join(t.TempDir(), "nested", "data"))

	records := []types.TicketRecord{
		{Requesters: []string{"Luis", "Ana"}, Text: "My laptop won't turn on"},
		{Requesters: []string{"Marta"}, Text: "Outlook asks for my password every hour"},
	}
	require.NoError(t, store.Save(ctx, supportDept, records))

	loaded, err := store.Load(ctx, supportDept)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)

	require.NoError(t, store.Save(ctx, supportDept, loaded))
	reloaded, err := store.Load(ctx, supportDept)
	require.NoError(t, err)
	assert.Equal(t, records, reloaded)

	data, err := os.ReadFile(store.Path(supportDept))
	require.NoError(t, err)
	assert.Equal(t, "[Luis, Ana] My laptop won't turn on\n[Marta] Outlook asks for my password every hour\n", string(data))
}

func TestSaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := New(dir)

	require.NoError(t, store.Save(ctx, supportDept, []types.TicketRecord{types.NewTicketRecord("Ana", "first")}))
	require.NoError(t, store.Save(ctx, supportDept, []types.TicketRecord{types.NewTicketRecord("Luis", "second")}))

	loaded, err := store.Load(ctx, supportDept)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "second", loaded[0].Text)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestSaveFailureReturnsStoreIOError(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	err := New(blocker).Save(context.Background(), supportDept, []types.TicketRecord{types.NewTicketRecord("Ana", "x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrStoreIO))

	var ioErr *types.StoreIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "save", ioErr.Op)
	assert.Equal(t, types.DepartmentSupport, ioErr.Department)
}

func TestLoadFailureReturnsStoreIOError(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes the read fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, supportDept.File), 0755))

	_, err := New(dir).Load(context.Background(), supportDept)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrStoreIO))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := New(t.TempDir())
	_, err := store.Load(ctx, supportDept)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Save(ctx, supportDept, nil), context.Canceled)
}
