package handlers

import (
	"net/http"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/workflow"
)

// Board serves the detective board of a case
type Board struct {
	Engine *workflow.Engine
}

// BoardHandler returns every node and edge of the case board
func (b Board) BoardHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	board, err := b.Engine.CaseBoard(ctx, p, caseID)
	if err != nil {
		writeError(w, err, "failed to get board")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// AddNodeHandler pins a node on the board
func (b Board) AddNodeHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in workflow.BoardNodeInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	node, err := b.Engine.AddBoardNode(ctx, p, caseID, in)
	if err != nil {
		writeError(w, err, "failed to add board node")
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// ConnectNodesHandler draws an edge between two nodes of the same board
func (b Board) ConnectNodesHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in struct {
		FromID int64  `json:"fromID"`
		ToID   int64  `json:"toID"`
		Label  string `json:"label"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	edge, err := b.Engine.ConnectBoardNodes(ctx, p, caseID, in.FromID, in.ToID, in.Label)
	if err != nil {
		writeError(w, err, "failed to connect board nodes")
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// MoveNodeHandler moves a node, repeating the same position is a no-op
func (b Board) MoveNodeHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	nodeID, ok := pathID(w, r, "node_id")
	if !ok {
		return
	}
	var in struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	node, err := b.Engine.MoveBoardNode(ctx, p, nodeID, in.X, in.Y)
	if err != nil {
		writeError(w, err, "failed to move board node")
		return
	}
	writeJSON(w, http.StatusOK, node)
}
