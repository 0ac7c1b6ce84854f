package workflow

import (
	"context"
	"strings"

	"github.com/linesmerrill/police-case-api/models"
)

// BoardNodeInput places a new item on a case's detective board
type BoardNodeInput struct {
	Kind  string  `json:"kind"`
	Label string  `json:"label"`
	RefID *int64  `json:"refID"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Board is the full detective board of a case
type Board struct {
	Nodes []models.BoardNode `json:"nodes"`
	Edges []models.BoardEdge `json:"edges"`
}

func boardCase(c *change, caseID int64) (*models.Case, error) {
	if err := c.p.require(CapBoardManage); err != nil {
		return nil, err
	}
	cs, err := getCase(c.ctx, c.tx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireAssignedDetective(c.p, cs); err != nil {
		return nil, err
	}
	if cs.Details.Status == models.CaseVoid {
		return nil, conflictf("case %d is void", caseID)
	}
	return cs, nil
}

// AddBoardNode adds an item to the board of a case
func (e *Engine) AddBoardNode(ctx context.Context, p Principal, caseID int64, in BoardNodeInput) (*models.BoardNode, error) {
	if strings.TrimSpace(in.Kind) == "" {
		return nil, validationf("kind is required")
	}
	var out *models.BoardNode
	err := e.edit(ctx, p, "add_board_node", func(c *change) error {
		if _, err := boardCase(c, caseID); err != nil {
			return err
		}
		n := &models.BoardNode{Details: models.BoardNodeDetails{
			CaseID:    caseID,
			Kind:      in.Kind,
			RefID:     in.RefID,
			Label:     in.Label,
			X:         in.X,
			Y:         in.Y,
			CreatedBy: p.ID(),
			UpdatedAt: c.now,
		}}
		if err := c.tx.InsertBoardNode(c.ctx, n); err != nil {
			return err
		}
		out = n
		return nil
	})
	return out, err
}

// ConnectBoardNodes draws a labelled edge between two nodes of the same board
func (e *Engine) ConnectBoardNodes(ctx context.Context, p Principal, caseID, fromID, toID int64, label string) (*models.BoardEdge, error) {
	if fromID == toID {
		return nil, validationf("a node cannot be connected to itself")
	}
	var out *models.BoardEdge
	err := e.edit(ctx, p, "connect_board_nodes", func(c *change) error {
		if _, err := boardCase(c, caseID); err != nil {
			return err
		}
		for _, id := range []int64{fromID, toID} {
			n, err := getBoardNode(c.ctx, c.tx, id)
			if err != nil {
				return err
			}
			if n.Details.CaseID != caseID {
				return validationf("board node %d belongs to another case", id)
			}
		}
		edge := &models.BoardEdge{Details: models.BoardEdgeDetails{
			CaseID: caseID,
			FromID: fromID,
			ToID:   toID,
			Label:  label,
		}}
		if err := c.tx.InsertBoardEdge(c.ctx, edge); err != nil {
			return err
		}
		out = edge
		return nil
	})
	return out, err
}

// MoveBoardNode sets the position of a node. Repeating the same move is a no-op.
func (e *Engine) MoveBoardNode(ctx context.Context, p Principal, nodeID int64, x, y float64) (*models.BoardNode, error) {
	var out *models.BoardNode
	err := e.edit(ctx, p, "move_board_node", func(c *change) error {
		n, err := getBoardNode(c.ctx, c.tx, nodeID)
		if err != nil {
			return err
		}
		if _, err := boardCase(c, n.Details.CaseID); err != nil {
			return err
		}
		out = n
		if n.Details.X == x && n.Details.Y == y {
			c.unchanged = true
			return nil
		}
		n.Details.X, n.Details.Y = x, y
		n.Details.UpdatedAt = c.now
		return c.tx.UpdateBoardNode(c.ctx, n)
	})
	return out, err
}

// CaseBoard returns every node and edge of a case's board
func (e *Engine) CaseBoard(ctx context.Context, p Principal, caseID int64) (*Board, error) {
	var out Board
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		cs, err := getCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if !p.Can(CapReadAll) && requireAssignedDetective(p, cs) != nil {
			return deniedf("case %d is not visible to you", caseID)
		}
		if out.Nodes, err = tx.ListBoardNodes(ctx, caseID); err != nil {
			return err
		}
		out.Edges, err = tx.ListBoardEdges(ctx, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
