package compose

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// SupplierOutcome: результат выбора поставщика.
type SupplierOutcome struct {
	View     View
	Decision domain.GuardDecision
	// Products: первая страница каталога нового поставщика, если смена применена.
	Products domain.Page[domain.Product]
	// ProductsErr: ошибка загрузки каталога; сама смена поставщика при этом сохранена.
	ProductsErr error
}

// SelectSupplier выбирает поставщика. При непустом черновике смена ждёт ConfirmSupplierChange.
func (s *Service) SelectSupplier(ctx context.Context, auth domain.AuthSession, id, supplierID string) (SupplierOutcome, error) {
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" {
		return SupplierOutcome{}, domain.ErrSupplierRequired
	}
	sess, rt, err := s.snapshot(auth, id)
	if err != nil {
		return SupplierOutcome{}, err
	}

	preview := sess.Clone()
	var profile *domain.SupplierProfile
	if preview.Guard.Request(&preview.Draft, supplierID) == domain.GuardApplied {
		p, err := rt.directory.Profile(ctx, auth.Token, supplierID)
		if err != nil {
			return SupplierOutcome{}, err
		}
		profile = &p
	}

	var decision domain.GuardDecision
	saved, err := s.mutate(auth, id, func(sess *domain.ComposeSession, _ *runtime) (bool, error) {
		decision = sess.Guard.Request(&sess.Draft, supplierID)
		if decision == domain.GuardApplied {
			applyProfile(sess, supplierID, profile)
		}
		return true, nil
	})
	if err != nil {
		return SupplierOutcome{}, err
	}
	s.metrics.RecordSupplierChange(string(decision))

	out := SupplierOutcome{View: newView(saved), Decision: decision}
	if decision != domain.GuardApplied {
		return out, nil
	}
	s.record(saved, domain.TimelineSupplierChanged, supplierID)
	return s.reloadCatalog(ctx, auth, id, rt, supplierID, out)
}

// ConfirmSupplierChange применяет ожидающую смену поставщика: позиции и имя черновика очищаются.
func (s *Service) ConfirmSupplierChange(ctx context.Context, auth domain.AuthSession, id string) (SupplierOutcome, error) {
	sess, rt, err := s.snapshot(auth, id)
	if err != nil {
		return SupplierOutcome{}, err
	}
	if !sess.Guard.Pending() {
		return SupplierOutcome{}, domain.ErrNoPendingSupplierChange
	}
	candidate := sess.Guard.Candidate
	profile, err := rt.directory.Profile(ctx, auth.Token, candidate)
	if err != nil {
		return SupplierOutcome{}, err
	}

	saved, err := s.mutate(auth, id, func(sess *domain.ComposeSession, _ *runtime) (bool, error) {
		if sess.Guard.Candidate != candidate {
			// Кандидат сменился, пока загружался профиль.
			return false, domain.ErrSessionVersionConflict
		}
		applied, err := sess.Guard.Confirm(&sess.Draft)
		if err != nil {
			return false, err
		}
		applyProfile(sess, applied, &profile)
		return true, nil
	})
	if err != nil {
		return SupplierOutcome{}, err
	}
	s.metrics.RecordSupplierChange("confirmed")
	s.record(saved, domain.TimelineSupplierChanged, candidate)
	s.logger.WithFields(log.Fields{
		"session_id":  id,
		"supplier_id": candidate,
	}).Info("supplier change confirmed, draft items discarded")

	out := SupplierOutcome{View: newView(saved), Decision: domain.GuardApplied}
	return s.reloadCatalog(ctx, auth, id, rt, candidate, out)
}

// CancelSupplierChange отменяет ожидающую смену; черновик не меняется.
func (s *Service) CancelSupplierChange(_ context.Context, auth domain.AuthSession, id string) (View, error) {
	cancelled := false
	saved, err := s.mutate(auth, id, func(sess *domain.ComposeSession, _ *runtime) (bool, error) {
		cancelled = sess.Guard.Cancel()
		return cancelled, nil
	})
	if err != nil {
		return View{}, err
	}
	if cancelled {
		s.metrics.RecordSupplierChange("cancelled")
	}
	return newView(saved), nil
}

func (s *Service) reloadCatalog(ctx context.Context, auth domain.AuthSession, id string, rt *runtime, supplierID string, out SupplierOutcome) (SupplierOutcome, error) {
	page, err := rt.browser.SetSupplier(ctx, auth.Token, supplierID)
	saved, saveErr := s.persistCatalog(auth, id, rt)
	if saveErr != nil {
		return out, saveErr
	}
	out.View = newView(saved)
	if err != nil {
		out.ProductsErr = err
		return out, nil
	}
	out.Products = page
	return out, nil
}

// applyProfile записывает профиль выбранного поставщика и имя по умолчанию.
func applyProfile(sess *domain.ComposeSession, supplierID string, profile *domain.SupplierProfile) {
	sess.Draft.SupplierID = supplierID
	sess.Catalog.SupplierID = supplierID
	sess.Catalog.Page = 0
	sess.Dispatch = domain.DispatchState{}
	if profile == nil || (profile.ID != "" && profile.ID != supplierID) {
		sess.Supplier = nil
		return
	}
	p := *profile
	p.ID = supplierID
	sess.Supplier = &p
	sess.Draft.DefaultName(p.Name)
}
