package domain

import "github.com/b2b-marketplace/offer-service/shared-domain/types"

type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionCleanup Action = "cleanup"
)

var actionOrder = []Action{ActionAccept, ActionReject, ActionCancel, ActionCleanup}

type transitionRule struct {
	role types.ViewerRole
	from []types.OfferStatus
}

// transitionRules is keyed by action; a rule with an empty role applies to
// both viewers. Statuses are normalized (overlay and clock already applied).
var transitionRules = map[Action][]transitionRule{
	ActionAccept: {
		{role: types.ViewerFulfiller, from: []types.OfferStatus{types.OfferStatusPending}},
	},
	ActionReject: {
		{role: types.ViewerFulfiller, from: []types.OfferStatus{types.OfferStatusPending}},
	},
	ActionCancel: {
		{role: types.ViewerRequester, from: []types.OfferStatus{types.OfferStatusPending, types.OfferStatusApproved}},
	},
	ActionCleanup: {
		{from: []types.OfferStatus{
			types.OfferStatusApproved,
			types.OfferStatusRejected,
			types.OfferStatusExpired,
			types.OfferStatusPaid,
		}},
		// the requester may also clear offers it withdrew
		{role: types.ViewerRequester, from: []types.OfferStatus{types.OfferStatusCancelled}},
	},
}

// CanTransition reports whether role may run action on an offer currently
// showing status. Stock feasibility is checked separately by CanAccept.
func CanTransition(action Action, status types.OfferStatus, role types.ViewerRole) bool {
	for _, rule := range transitionRules[action] {
		if rule.role != "" && rule.role != role {
			continue
		}
		for _, from := range rule.from {
			if from == status {
				return true
			}
		}
	}
	return false
}

// AllowedActions lists, in a stable order, the controls to enable.
func AllowedActions(status types.OfferStatus, role types.ViewerRole) []Action {
	actions := make([]Action, 0, len(actionOrder))
	for _, action := range actionOrder {
		if CanTransition(action, status, role) {
			actions = append(actions, action)
		}
	}
	return actions
}
