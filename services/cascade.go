package services

import (
	"context"
	"errors"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// cascadeAttempts bounds how often a deletion cascade re-plans after a
// concurrent toggle invalidates a planned saved-post patch.
const cascadeAttempts = 3

// savedRefPlan is the planned fixup for one SavedPost document whose items
// reference posts about to be deleted: either replace the item list or,
// when nothing would remain, delete the whole document.
type savedRefPlan struct {
	doc      *models.SavedPost
	items    []models.SavedItem
	deleteIt bool
}

// planSavedRefFixups collects every SavedPost referencing any of postIDs
// and plans the matching patch or delete. The plan is computed outside the
// transaction; execution happens inside it.
func planSavedRefFixups(ctx context.Context, store SavedPostStore, postIDs []primitive.ObjectID) ([]savedRefPlan, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	doomed := make(map[primitive.ObjectID]bool, len(postIDs))
	for _, id := range postIDs {
		doomed[id] = true
	}

	docs, err := store.FindReferencing(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	plans := make([]savedRefPlan, 0, len(docs))
	for _, doc := range docs {
		kept := make([]models.SavedItem, 0, len(doc.Items))
		for _, item := range doc.Items {
			if !doomed[item.PostID] {
				kept = append(kept, item)
			}
		}
		plans = append(plans, savedRefPlan{
			doc:      doc,
			items:    kept,
			deleteIt: len(kept) == 0,
		})
	}
	return plans, nil
}

// applySavedRefFixups executes planned fixups, normally with a transaction
// context. Patches go through the revision guard; inside a transaction a
// concurrent toggle aborts the transaction instead of being silently lost.
func applySavedRefFixups(ctx context.Context, store SavedPostStore, plans []savedRefPlan) error {
	for _, plan := range plans {
		if plan.deleteIt {
			if err := store.Delete(ctx, plan.doc.ID); err != nil {
				return err
			}
			continue
		}
		ok, err := store.CompareAndSwapItems(ctx, plan.doc.ID, plan.items, plan.doc.Revision)
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrRevisionConflict
		}
	}
	return nil
}

// runSavedRefCascade plans the saved-post fixups for postIDs and commits
// them, together with the caller's own mutations, as one transaction. A
// revision miss on any patch aborts the transaction and the cascade
// re-plans from current state, up to cascadeAttempts times.
func runSavedRefCascade(ctx context.Context, tx TxRunner, store SavedPostStore, postIDs []primitive.ObjectID, mutate func(txCtx context.Context) error) error {
	for attempt := 0; attempt < cascadeAttempts; attempt++ {
		plans, err := planSavedRefFixups(ctx, store, postIDs)
		if err != nil {
			return errs.NewStoreError("collect saved posts", "savedPost", err)
		}

		err = tx.RunTransaction(ctx, func(txCtx context.Context) error {
			if err := applySavedRefFixups(txCtx, store, plans); err != nil {
				return err
			}
			return mutate(txCtx)
		})
		if errors.Is(err, errs.ErrRevisionConflict) {
			continue
		}
		return err
	}
	return errs.NewRevisionConflictError("savedPost", cascadeAttempts)
}
