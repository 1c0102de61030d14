package domain

import (
	"errors"
	"fmt"
)

// BlockedMessage is the fixed, recognizable text carried by every
// destination block.
const BlockedMessage = "request blocked by security policy"

var (
	// ErrBlockedDestination matches any BlockedDestinationError via errors.Is.
	ErrBlockedDestination = errors.New(BlockedMessage)
	// ErrCapabilityDisabled matches any CapabilityDisabledError via errors.Is.
	ErrCapabilityDisabled = errors.New("capability disabled by security policy")
	// ErrUnsupportedEnvironment reports that a capability is absent from the
	// host. Installers treat it as "skip", never as a failure.
	ErrUnsupportedEnvironment = errors.New("capability not supported in this environment")
)

// Classification mirrors the name a native API uses for a permission or
// support denial, so callers that already branch on it keep working.
type Classification string

const (
	NotAllowedError   Classification = "NotAllowedError"
	NotSupportedError Classification = "NotSupportedError"
	BlockedError      Classification = "BlockedError"
)

// BlockedDestinationError is returned when a call targets a denylisted destination.
type BlockedDestinationError struct {
	Capability  CapabilityName
	Destination string
	Rule        string // matched pattern, if known
}

func (e *BlockedDestinationError) Error() string {
	return BlockedMessage
}

// Is makes errors.Is(err, ErrBlockedDestination) succeed.
func (e *BlockedDestinationError) Is(target error) bool {
	return target == ErrBlockedDestination
}

// Detail renders the error with its capability and destination for logs.
func (e *BlockedDestinationError) Detail() string {
	return fmt.Sprintf("%s: %s blocked %q", BlockedMessage, e.Capability, e.Destination)
}

// CapabilityDisabledError is returned when a blanket-disabled capability is called.
type CapabilityDisabledError struct {
	Capability     CapabilityName
	Classification Classification
}

func (e *CapabilityDisabledError) Error() string {
	return fmt.Sprintf("%s: %s is disabled by security policy", e.Classification, e.Capability)
}

// Is makes errors.Is(err, ErrCapabilityDisabled) succeed.
func (e *CapabilityDisabledError) Is(target error) bool {
	return target == ErrCapabilityDisabled
}

// IsBlocked reports whether err is a policy decision of either kind.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlockedDestination) || errors.Is(err, ErrCapabilityDisabled)
}

// ClassificationOf returns the classification carried by err, or "" when err
// is not a CapabilityDisabledError.
func ClassificationOf(err error) Classification {
	var cd *CapabilityDisabledError
	if errors.As(err, &cd) {
		return cd.Classification
	}
	return ""
}
