package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"prism/internal/gateway/config"
	"prism/internal/perspective"
	"prism/internal/pipeline"
)

func testConfig() *config.Config {
	cfg := config.FromEnv(":0")
	cfg.PerspectivesPath = ""
	return cfg
}

func TestRunAsk_PlainFake(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := runAsk(context.Background(), &stdout, &stderr, testConfig(), askOptions{fake: true, plain: true, state: true, mode: "committee"}, "Should we ship on Friday?")
	require.NoError(t, err)

	assert.Contains(t, stderr.String(), pipeline.NotePerspectives)
	assert.Contains(t, stderr.String(), pipeline.NoteFinalSynthesis)
	assert.Contains(t, stdout.String(), "fake final answer")
	assert.Contains(t, stdout.String(), `"mode":"committee"`)
}

func TestRunAsk_UnknownMode(t *testing.T) {
	err := runAsk(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, testConfig(), askOptions{fake: true, plain: true, mode: "jury"}, "q")
	assert.Error(t, err)
}

func TestReadQuestion(t *testing.T) {
	q, err := readQuestion(strings.NewReader("  from stdin \n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", q)

	q, err = readQuestion(strings.NewReader("ignored"), []string{"arg"})
	require.NoError(t, err)
	assert.Equal(t, "arg", q)

	_, err = readQuestion(strings.NewReader(" "), nil)
	assert.Error(t, err)
}

func TestPerspectivesCmd_YAML(t *testing.T) {
	t.Setenv("PRISM_PERSPECTIVES_FILE", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"perspectives", "--mode", "committee", "-o", "yaml"})
	require.NoError(t, cmd.Execute())

	var file perspective.File
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &file))
	assert.Len(t, file[perspective.ModeCommittee], 7)
}

func TestPerspectivesCmd_Table(t *testing.T) {
	t.Setenv("PRISM_PERSPECTIVES_FILE", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"perspectives"})
	require.NoError(t, cmd.Execute())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 8)
	assert.Contains(t, lines[0], "DESCRIPTION")
}

func TestAskModel_AppliesEvents(t *testing.T) {
	m := newAskModel("why?", "fake")
	tok := "Hello"
	for _, e := range []pipeline.Event{
		{Kind: pipeline.EventProgress, Note: pipeline.NotePerspectives},
		{Kind: pipeline.EventState, State: &pipeline.State{Perspectives: make([]pipeline.Result, 3)}},
		{Kind: pipeline.EventToken, Token: &tok},
		{Kind: pipeline.EventToken},
	} {
		next, _ := m.Update(eventMsg(e))
		m = next.(askModel)
	}
	view := m.View()
	assert.Contains(t, view, pipeline.NotePerspectives+" [3]")
	assert.Contains(t, view, "Hello")

	next, cmd := m.Update(doneMsg{err: errors.New("boom")})
	m = next.(askModel)
	assert.True(t, m.done)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "error: boom")
}

func TestPrintAnswer(t *testing.T) {
	var out bytes.Buffer
	printAnswer(&out, "**Key Assumptions**: a\n\n**Response**: b")
	assert.Contains(t, out.String(), "Key Assumptions")
	assert.Contains(t, out.String(), "b")

	out.Reset()
	printAnswer(&out, "no sections")
	assert.Equal(t, "no sections\n", out.String())
}
