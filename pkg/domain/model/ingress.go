package model

// IngressDecision is the decision taken on an inbound webhook
type IngressDecision string

const (
	IngressRejected IngressDecision = "rejected"
	IngressIgnored  IngressDecision = "ignored"
	IngressAccepted IngressDecision = "accepted"
)

// IngressOutcome describes what happened to an inbound webhook
type IngressOutcome struct {
	Decision IngressDecision
	Reason   string
}
