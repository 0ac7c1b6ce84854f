package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

func TestBoard(t *testing.T) {
	f := newFixture(t)
	cs := f.investigating(models.SeverityLevel1)
	logCount := len(f.logs(cs.ID))

	a, err := f.engine.AddBoardNode(bg, detective, cs.ID, workflow.BoardNodeInput{Kind: "suspect", Label: "John Doe", X: 1, Y: 1})
	require.NoError(t, err)
	b, err := f.engine.AddBoardNode(bg, detective, cs.ID, workflow.BoardNodeInput{Kind: "note", Label: "seen at 22:00"})
	require.NoError(t, err)

	edge, err := f.engine.ConnectBoardNodes(bg, detective, cs.ID, a.ID, b.ID, "alibi")
	require.NoError(t, err)
	assert.Equal(t, "alibi", edge.Details.Label)

	_, err = f.engine.ConnectBoardNodes(bg, detective, cs.ID, a.ID, a.ID, "")
	assertKind(t, workflow.KindValidation, err)

	moved, err := f.engine.MoveBoardNode(bg, detective, a.ID, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 10.0, moved.Details.X)
	again, err := f.engine.MoveBoardNode(bg, detective, a.ID, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, moved.Version, again.Version)

	board, err := f.engine.CaseBoard(bg, captain, cs.ID)
	require.NoError(t, err)
	assert.Len(t, board.Nodes, 2)
	assert.Len(t, board.Edges, 1)

	assert.Len(t, f.logs(cs.ID), logCount, "board edits are not audited")
}

func TestBoard_Guards(t *testing.T) {
	f := newFixture(t)
	cs := f.investigating(models.SeverityLevel2)
	other := f.investigating(models.SeverityLevel3)

	_, err := f.engine.AddBoardNode(bg, detective, cs.ID, workflow.BoardNodeInput{Label: "no kind"})
	assertKind(t, workflow.KindValidation, err)

	_, err = f.engine.AddBoardNode(bg, otherDet, cs.ID, workflow.BoardNodeInput{Kind: "note"})
	assertKind(t, workflow.KindPermissionDenied, err)

	_, err = f.engine.AddBoardNode(bg, sergeant, cs.ID, workflow.BoardNodeInput{Kind: "note"})
	assertKind(t, workflow.KindPermissionDenied, err)

	mine, err := f.engine.AddBoardNode(bg, detective, cs.ID, workflow.BoardNodeInput{Kind: "note"})
	require.NoError(t, err)
	theirs, err := f.engine.AddBoardNode(bg, detective, other.ID, workflow.BoardNodeInput{Kind: "note"})
	require.NoError(t, err)

	_, err = f.engine.ConnectBoardNodes(bg, detective, cs.ID, mine.ID, theirs.ID, "")
	assertKind(t, workflow.KindValidation, err)

	_, err = f.engine.MoveBoardNode(bg, otherDet, mine.ID, 5, 5)
	assertKind(t, workflow.KindPermissionDenied, err)

	_, err = f.engine.MoveBoardNode(bg, detective, 999, 5, 5)
	assertKind(t, workflow.KindNotFound, err)

	_, err = f.engine.CaseBoard(bg, citizen, cs.ID)
	assertKind(t, workflow.KindPermissionDenied, err)
}
