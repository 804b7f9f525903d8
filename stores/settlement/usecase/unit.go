package usecase

import (
	"golang.org/x/xerrors"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
)

type step struct {
	name string
	undo func() error
}

// unit tracks the completed steps of one purchase so a later failure can
// undo them, newest first
type unit struct {
	orderId int64
	steps   []step
}

func (u *unit) done(name string, undo func() error) {
	u.steps = append(u.steps, step{name, undo})
}

// abort undoes every completed step and returns cause. It stops at the first
// step that cannot be undone, the older steps then stay in effect and
// domain.ErrSettlementIncomplete is returned.
func (u *unit) abort(c ctx.Ctx, cause error) error {
	for i := len(u.steps) - 1; i >= 0; i-- {
		st := u.steps[i]
		if err := st.undo(); err != nil {
			met.BumpSum("undo.failed", 1, "step", st.name)
			c.WithFields(log.Fields{
				"err":   err,
				"cause": cause,
				"id":    u.orderId,
				"step":  st.name,
			}).Error("undo failed, settlement left incomplete")
			return xerrors.Errorf("%v, undo %s: %v: %w", cause, st.name, err, domain.ErrSettlementIncomplete)
		}
	}
	met.BumpSum("rollback", 1)
	return cause
}
