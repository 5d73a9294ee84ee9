package oracle

import "errors"

var (
	ErrInvalidSubscription         = errors.New("invalid subscription")
	ErrInvalidConsumer             = errors.New("invalid consumer")
	ErrTooManyConsumers            = errors.New("too many consumers")
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrNonexistentRequest          = errors.New("nonexistent request")
	ErrInvalidRandomWords          = errors.New("invalid random words")
	ErrNumWordsTooBig              = errors.New("num words too big")
	ErrInvalidRequestConfirmations = errors.New("invalid request confirmations")
	ErrGasLimitTooBig              = errors.New("gas limit too big")
	ErrIncorrectCommitment         = errors.New("incorrect commitment")
	ErrInvalidProof                = errors.New("invalid vrf proof")
	ErrInvalidAmount               = errors.New("invalid amount")
	ErrPendingRequestExists        = errors.New("pending request exists")
)
