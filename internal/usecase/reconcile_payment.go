package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
)

// HandlePaymentSucceeded records a succeeded payment intent and materializes the
// procedure it pays for when no earlier event already did.
func (r *Reconciler) HandlePaymentSucceeded(ctx context.Context, event *provider.Event) error {
	pi := event.PaymentIntent
	if pi == nil {
		return missingObject(event.Type)
	}

	env, err := envelope.Parse(pi.Metadata)
	if err != nil {
		return err
	}
	if err := env.RequireUser(); err != nil {
		return err
	}

	logger := r.logger.With(
		zap.String("payment_intent_id", pi.ID),
		zap.String("user_id", env.UserID),
		zap.String("kind", string(env.Kind)),
	)

	payment, err := r.repos.Payment.GetByStripePaymentIntentID(ctx, pi.ID)
	if err != nil {
		return err
	}

	existed := payment != nil
	if !existed {
		payment = newPaymentFromIntent(pi, env.UserID, model.PaymentStatusSucceeded)
		if err := r.repos.Payment.Create(ctx, payment); err != nil {
			return err
		}
	} else if payment.Status != model.PaymentStatusSucceeded {
		updates := map[string]interface{}{"status": model.PaymentStatusSucceeded}
		if pi.LatestChargeID != "" {
			updates["stripe_charge_id"] = pi.LatestChargeID
		}
		if err := r.repos.Payment.Update(ctx, payment.ID, updates); err != nil {
			return err
		}
		payment.Status = model.PaymentStatusSucceeded
	}
	metrics.IncPaymentReconciled(string(model.PaymentStatusSucceeded))
	logger = logger.With(zap.String("payment_id", payment.ID))

	// The payment is durable from here on; procedure failures are logged only.
	if existed && payment.ProcedureID != nil {
		if err := r.promoteLinked(ctx, *payment.ProcedureID, payment, env); err != nil {
			r.bestEffort("procedure", err, zap.String("payment_id", payment.ID))
		}
		return nil
	}

	if err := r.materializePaid(ctx, payment, env, logger); err != nil {
		r.bestEffort("procedure", err, zap.String("payment_id", payment.ID))
	}
	return nil
}

// promoteLinked moves a procedure left at the unpaid target by an earlier failure to the paid target
func (r *Reconciler) promoteLinked(ctx context.Context, procedureID string, payment *model.Payment, env *envelope.Envelope) error {
	procedure, err := r.repos.Procedure.GetByID(ctx, procedureID)
	if err != nil {
		return err
	}
	return r.promote(ctx, procedure, payment, env)
}

func (r *Reconciler) promote(ctx context.Context, procedure *model.Procedure, payment *model.Payment, env *envelope.Envelope) error {
	if procedure == nil || procedure.UserID != payment.UserID {
		return nil
	}

	isInjonction := env.IsInjonction || procedure.Status.IsInjonction()
	if procedure.Status != model.UnpaidTarget(isInjonction) {
		return nil
	}

	_, err := r.repos.Procedure.ForceStatus(ctx, procedure.ID, repository.ProcedureStatusUpdate{
		Status:        model.PaidTarget(isInjonction),
		PaymentStatus: model.PaymentStatusSucceeded,
		PaymentID:     &payment.ID,
	})
	if err == nil {
		r.logger.Info("Procedure promoted after payment",
			zap.String("procedure_id", procedure.ID),
			zap.String("payment_id", payment.ID))
	}
	return err
}

// materializePaid creates or updates the procedure described by the envelope
func (r *Reconciler) materializePaid(ctx context.Context, payment *model.Payment, env *envelope.Envelope, logger *zap.Logger) error {
	if env.ProcedureData == nil {
		if env.ProcedureID == "" {
			logger.Info("Payment carries no procedure reference")
			return nil
		}
		procedure, err := r.repos.Procedure.GetByID(ctx, env.ProcedureID)
		if err != nil {
			return err
		}
		if procedure == nil || procedure.UserID != env.UserID {
			logger.Warn("Payment references an unknown procedure", zap.String("procedure_id", env.ProcedureID))
			return nil
		}
		if err := r.promote(ctx, procedure, payment, env); err != nil {
			return err
		}
		return r.repos.Payment.Update(ctx, payment.ID, map[string]interface{}{
			"procedure_id": procedure.ID,
		})
	}

	return r.tx.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if env.ProcedureID != "" {
			draft, err := repos.Procedure.GetByID(ctx, env.ProcedureID)
			if err != nil {
				return err
			}
			if draft != nil && draft.UserID == env.UserID && draft.Status == model.ProcedureStatusBrouillons {
				logger.Info("Updating draft from snapshot", zap.String("procedure_id", draft.ID))
				return r.updateDraftFromSnapshot(ctx, repos, draft, payment, env,
					model.ProcedureStatusNouveau, model.PaymentStatusSucceeded)
			}
		}

		procedure, err := r.createProcedureFromSnapshot(ctx, repos, payment, env,
			model.ProcedureStatusNouveau, model.PaymentStatusSucceeded)
		if err != nil {
			return err
		}
		logger.Info("Procedure created from snapshot", zap.String("procedure_id", procedure.ID))
		return nil
	})
}

// HandlePaymentFailed records a failed payment intent. The procedure it was
// paying for falls back to its unpaid status; a snapshot without a procedure
// is kept as a failed draft so the user can retry it.
func (r *Reconciler) HandlePaymentFailed(ctx context.Context, event *provider.Event) error {
	pi := event.PaymentIntent
	if pi == nil {
		return missingObject(event.Type)
	}

	// Only identifiers are needed to record a failure; unusable values are reported at the end.
	env, metaErr := envelope.ParseLenient(pi.Metadata)

	logger := r.logger.With(
		zap.String("payment_intent_id", pi.ID),
		zap.String("procedure_id", env.ProcedureID),
	)

	payment, err := r.repos.Payment.GetByStripePaymentIntentID(ctx, pi.ID)
	if err != nil {
		return err
	}

	switch {
	case payment == nil && env.UserID != "":
		payment = newPaymentFromIntent(pi, env.UserID, model.PaymentStatusFailed)
		if err := r.repos.Payment.Create(ctx, payment); err != nil {
			return err
		}
	case payment == nil:
		logger.Info("Failed intent has no payment and no user, payment not recorded")
	case !payment.Status.CanTransitionTo(model.PaymentStatusFailed):
		logger.Warn("Ignoring failure for a payment that already succeeded",
			zap.String("payment_id", payment.ID))
		return nil
	case payment.Status != model.PaymentStatusFailed:
		if err := r.repos.Payment.Update(ctx, payment.ID, map[string]interface{}{
			"status": model.PaymentStatusFailed,
		}); err != nil {
			return err
		}
		payment.Status = model.PaymentStatusFailed
	}
	metrics.IncPaymentReconciled(string(model.PaymentStatusFailed))

	procedureID := env.ProcedureID
	if procedureID == "" && payment != nil && payment.ProcedureID != nil {
		procedureID = *payment.ProcedureID
	}

	if procedureID != "" {
		procedure, err := r.repos.Procedure.GetByID(ctx, procedureID)
		if err != nil {
			return err
		}
		if procedure != nil {
			if err := r.revertProcedure(ctx, procedure, payment, env); err != nil {
				return err
			}
			return metaErr
		}
	}

	if env.ProcedureData == nil {
		logger.Info("Failed payment carries no procedure to keep")
		return metaErr
	}
	if payment == nil {
		return env.RequireUser()
	}

	err = r.tx.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		procedure, err := r.createProcedureFromSnapshot(ctx, repos, payment, env,
			model.ProcedureStatusBrouillons, model.PaymentStatusFailed)
		if err != nil {
			return err
		}
		logger.Info("Failed payment kept as draft", zap.String("procedure_id", procedure.ID))
		return nil
	})
	if err != nil {
		return err
	}
	return metaErr
}

// revertProcedure sets the procedure of a failed payment back to its unpaid target
func (r *Reconciler) revertProcedure(ctx context.Context, procedure *model.Procedure, payment *model.Payment, env *envelope.Envelope) error {
	isInjonction := env.IsInjonction || procedure.Status.IsInjonction()
	update := repository.ProcedureStatusUpdate{
		Status:        model.UnpaidTarget(isInjonction),
		PaymentStatus: model.PaymentStatusFailed,
	}
	if payment != nil {
		update.PaymentID = &payment.ID
	}
	if _, err := r.repos.Procedure.ForceStatus(ctx, procedure.ID, update); err != nil {
		return err
	}

	r.logger.Info("Procedure reverted after failed payment",
		zap.String("procedure_id", procedure.ID),
		zap.String("status", string(update.Status)))

	if payment == nil || payment.ProcedureID != nil {
		return nil
	}
	return r.repos.Payment.Update(ctx, payment.ID, map[string]interface{}{
		"procedure_id": procedure.ID,
	})
}
