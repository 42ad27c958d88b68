package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFormatCounts(t *testing.T) {
	assert.Equal(t, "-", formatCounts(nil))
	assert.Equal(t, "click=3 drag_begin=1 scroll=12", formatCounts(map[string]int{
		"scroll": 12, "click": 3, "drag_begin": 1,
	}))
}

func TestListSessions(t *testing.T) {
	s := newTestStore(t)

	var out bytes.Buffer
	require.NoError(t, listSessions(&out, s, 10))
	assert.Equal(t, "No sessions recorded.\n", out.String())

	sess := &store.Session{ScreenWidth: 1920, ScreenHeight: 1080}
	require.NoError(t, s.Sessions().Start(sess))
	require.NoError(t, s.ActionLog().Append(&store.LogEntry{SessionID: sess.ID, Kind: "click", Gesture: "pinch"}))
	require.NoError(t, s.ActionLog().Append(&store.LogEntry{SessionID: sess.ID, Kind: "click", Gesture: "pinch"}))

	out.Reset()
	require.NoError(t, listSessions(&out, s, 10))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], sess.ID[:8])
	assert.Contains(t, lines[2], "running")
	assert.Contains(t, lines[2], "1920x1080")
	assert.Contains(t, lines[2], "direct")
	assert.Contains(t, lines[2], "click=2")
}

func TestSettingsCommands(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Settings().SetMany(map[string]string{"sensitivity": "1.5", "mapping": "zone"}))

	var out bytes.Buffer
	require.NoError(t, showSettings(&out, s))
	assert.Contains(t, out.String(), "mapping")
	assert.Contains(t, out.String(), "1.5")

	n, err := resetSettings(s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out.Reset()
	require.NoError(t, showSettings(&out, s))
	assert.Equal(t, "No saved settings.\n", out.String())
}

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, cmd.ParseFlags([]string{"--mapping", "zone", "--sensitivity", "1.2", "--no-failsafe"}))

	c := config.Default()
	require.NoError(t, applyFlags(cmd, &c))

	assert.Equal(t, pointer.ModeZone, c.Control.Mapping)
	assert.Equal(t, 1.2, c.Control.Sensitivity)
	assert.False(t, c.FailSafe)
	assert.Equal(t, pointer.DefaultSmoothing, c.Control.Smoothing, "unset flags leave config alone")
}

func TestApplyFlags_BadMapping(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, cmd.ParseFlags([]string{"--mapping", "polar"}))

	c := config.Default()
	assert.Error(t, applyFlags(cmd, &c))
}

func TestOverrideSaved(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Settings().SetMany(map[string]string{
		"sensitivity": "0.7",
		"smoothing":   "0.9",
		"mapping":     "zone",
	}))

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Float64("sensitivity", 0, "")
	cmd.Flags().Float64("smoothing", 0, "")
	cmd.Flags().String("mapping", "", "")
	require.NoError(t, cmd.ParseFlags([]string{"--sensitivity", "1.3"}))

	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = config.Default()
	cfg.Control.Sensitivity = 1.3

	a := app.New(app.Config{
		Store:   s,
		Control: cfg.Control,
		Screen:  pointer.Screen{Width: 800, Height: 600},
		Persist: true,
		Log:     logging.Discard(),
	})
	overrideSaved(cmd, a)

	got := a.ControlConfig()
	assert.Equal(t, 1.3, got.Sensitivity, "flag wins over the saved value")
	assert.Equal(t, 0.9, got.Smoothing, "saved value stays without a flag")
	assert.Equal(t, pointer.ModeZone, got.Mapping)

	saved, err := s.Settings().All()
	require.NoError(t, err)
	assert.Equal(t, "1.3", saved["sensitivity"])
}
