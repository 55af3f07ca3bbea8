package models

import "strings"

// Partition is one of the mutually exclusive display lists a record belongs to.
type Partition int

const (
	PartitionPending Partition = iota
	PartitionAccepted
	PartitionDeclined
)

func (p Partition) String() string {
	switch p {
	case PartitionAccepted:
		return "accepted"
	case PartitionDeclined:
		return "declined"
	default:
		return "pending"
	}
}

// PartitionOf classifies a backend status label. Labels are compared
// case-insensitively; unknown labels stay in the pending partition.
func PartitionOf(status string) Partition {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusAccepted, StatusApproved, StatusDone, StatusCompleted:
		return PartitionAccepted
	case StatusDeclined, StatusRejected, StatusCancelled, StatusCanceled:
		return PartitionDeclined
	default:
		return PartitionPending
	}
}

// IsStatus compares two status labels ignoring case.
func IsStatus(status, want string) bool {
	return strings.EqualFold(strings.TrimSpace(status), want)
}

// IsKnownStatus reports whether the label is one PartitionOf recognises
// rather than defaulting.
func IsKnownStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusPending, StatusAccepted, StatusApproved, StatusDone, StatusCompleted,
		StatusDeclined, StatusRejected, StatusCancelled, StatusCanceled:
		return true
	}
	return false
}
