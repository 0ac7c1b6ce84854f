package workflow

import (
	"context"

	"github.com/linesmerrill/police-case-api/models"
)

func getCase(ctx context.Context, tx Tx, id int64) (*models.Case, error) {
	v, err := tx.GetCase(ctx, id)
	return load(v, err, "case", id)
}

func getComplaint(ctx context.Context, tx Tx, caseID int64) (*models.ComplaintSubmission, error) {
	v, err := tx.GetComplaintSubmission(ctx, caseID)
	return load(v, err, "complaint submission for case", caseID)
}

func getComplainant(ctx context.Context, tx Tx, id int64) (*models.Complainant, error) {
	v, err := tx.GetComplainant(ctx, id)
	return load(v, err, "complainant", id)
}

func getSuspect(ctx context.Context, tx Tx, id int64) (*models.Suspect, error) {
	v, err := tx.GetSuspect(ctx, id)
	return load(v, err, "suspect", id)
}

func getSubmission(ctx context.Context, tx Tx, id int64) (*models.SuspectSubmission, error) {
	v, err := tx.GetSuspectSubmission(ctx, id)
	return load(v, err, "suspect submission", id)
}

func getInterrogation(ctx context.Context, tx Tx, id int64) (*models.Interrogation, error) {
	v, err := tx.GetInterrogation(ctx, id)
	return load(v, err, "interrogation", id)
}

func getPayment(ctx context.Context, tx Tx, id int64) (*models.BailPayment, error) {
	v, err := tx.GetPayment(ctx, id)
	return load(v, err, "payment", id)
}

func getTip(ctx context.Context, tx Tx, id int64) (*models.Tip, error) {
	v, err := tx.GetTip(ctx, id)
	return load(v, err, "tip", id)
}

func getBoardNode(ctx context.Context, tx Tx, id int64) (*models.BoardNode, error) {
	v, err := tx.GetBoardNode(ctx, id)
	return load(v, err, "board node", id)
}

// suspectOfCase loads a suspect and checks it belongs to the case
func suspectOfCase(ctx context.Context, tx Tx, caseID, suspectID int64) (*models.Suspect, error) {
	s, err := getSuspect(ctx, tx, suspectID)
	if err != nil {
		return nil, err
	}
	if s.Details.CaseID != caseID {
		return nil, validationf("suspect %d does not belong to case %d", suspectID, caseID)
	}
	return s, nil
}
