package signal

import "github.com/pxilabs/pxi/internal/domain"

// signalLeansRiskOn reports the directional reading of a signal class.
func signalLeansRiskOn(t domain.SignalType) bool {
	return t == domain.SignalFullRisk || t == domain.SignalReducedRisk
}

// Coherence is the consistency gate between the regime classifier and the
// signal policy. It compares two already-computed outputs; it computes no
// judgment of its own. MIXED must be reported whenever the two disagree
// in direction, and a CONFLICT state always forces MIXED.
func Coherence(regime *domain.RegimeClassification, sig domain.SignalState) (domain.Stance, domain.ConflictState) {
	leansOn := signalLeansRiskOn(sig.Type)

	if regime == nil || regime.Type == domain.RegimeTransition {
		if leansOn {
			return domain.StanceRiskOn, domain.ConflictNone
		}
		return domain.StanceRiskOff, domain.ConflictNone
	}

	switch regime.Type {
	case domain.RegimeRiskOn:
		if !leansOn {
			return domain.StanceMixed, domain.ConflictConflict
		}
		return domain.StanceRiskOn, domain.ConflictNone
	case domain.RegimeRiskOff:
		if leansOn {
			return domain.StanceMixed, domain.ConflictConflict
		}
		return domain.StanceRiskOff, domain.ConflictNone
	}
	return domain.StanceMixed, domain.ConflictConflict
}
