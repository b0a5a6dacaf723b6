package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrej220/siteops/internal/admin"
	"github.com/andrej220/siteops/pkg/config"
	"github.com/andrej220/siteops/pkg/lg"
)

func testApp(t *testing.T, sites []string) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Admin.ClientID = "siteops-tests"
	cfg.Admin.ClientSecret = "secret"
	cfg.Sites.ListPath = "sites.txt"
	cfg.Report.LogPath = ""
	cfg.Report.ArtifactDir = t.TempDir()
	cfg.Policy.SharingCapability = "Disabled"

	a, err := newApp(cfg, sites, lg.Discard)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func TestOperationForBindsAllFiveOperations(t *testing.T) {
	a := testApp(t, nil)

	tests := []struct {
		selection string
		wantName  string
	}{
		{selection: "1", wantName: "get-policy"},
		{selection: "2", wantName: "set-policy"},
		{selection: "3", wantName: "get-policy-status"},
		{selection: "4", wantName: "create-cleanup-job"},
		{selection: "5", wantName: "get-cleanup-job-status"},
	}
	for _, tt := range tests {
		op, ok := a.operationFor(tt.selection)
		require.True(t, ok, tt.selection)
		assert.Equal(t, tt.wantName, op.Name())
	}

	_, ok := a.operationFor("7")
	assert.False(t, ok)
}

func TestSetPolicyCarriesConfiguredDocument(t *testing.T) {
	a := testApp(t, nil)
	op, ok := a.operationFor("2")
	require.True(t, ok)

	setOp, ok := op.(admin.SetPolicy)
	require.True(t, ok)
	assert.Equal(t, "Disabled", setOp.Policy.SharingCapability)
}

func TestMenuLoopQuits(t *testing.T) {
	a := testApp(t, nil)
	var out bytes.Buffer

	err := a.menuLoop(context.Background(), strings.NewReader("q\n"), &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "select:")
}

func TestMenuLoopRejectsUnknownSelectionAndReprompts(t *testing.T) {
	a := testApp(t, nil)
	var out bytes.Buffer

	err := a.menuLoop(context.Background(), strings.NewReader("9\nq\n"), &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), `unknown selection "9"`)
	// re-prompted after the bad selection
	assert.Equal(t, 2, strings.Count(out.String(), "select:"))
}

func TestMenuLoopRunsBatchAndReprompts(t *testing.T) {
	a := testApp(t, nil) // empty site list keeps the batch offline
	var out bytes.Buffer

	err := a.menuLoop(context.Background(), strings.NewReader("1\nq\n"), &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "0/0 sites completed")
	assert.Contains(t, out.String(), "run report written to")
	assert.Equal(t, 2, strings.Count(out.String(), "select:"))
}

func TestMenuLoopEOFBehavesLikeQuit(t *testing.T) {
	a := testApp(t, nil)
	var out bytes.Buffer

	err := a.menuLoop(context.Background(), strings.NewReader(""), &out)
	require.NoError(t, err)
}
